package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/memscope/pkg/errors"
	"github.com/memscope/pkg/model"
)

// findingBatchSize bounds the rows per INSERT statement.
const findingBatchSize = 500

// GormScanRunRepository implements ScanRunRepository using GORM.
type GormScanRunRepository struct {
	db *gorm.DB
}

// NewGormScanRunRepository creates a new GormScanRunRepository.
func NewGormScanRunRepository(db *gorm.DB) *GormScanRunRepository {
	return &GormScanRunRepository{db: db}
}

// SaveRun stores the run row and its findings in one transaction.
func (r *GormScanRunRepository) SaveRun(ctx context.Context, report *model.ScanReport) error {
	if report.RunID == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "run id is required")
	}

	run := newScanRun(report)
	records := newFindingRecords(report.RunID, report.Findings)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to insert scan run: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, findingBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert findings: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "save run "+report.RunID, err)
	}
	return nil
}

// GetRun loads a run and its findings.
func (r *GormScanRunRepository) GetRun(ctx context.Context, runID string) (*model.ScanReport, error) {
	var run ScanRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, "run "+runID, err)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "get run "+runID, err)
	}

	var records []FindingRecord
	err = r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("slot_offset ASC").
		Find(&records).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "get findings of run "+runID, err)
	}

	return toReport(&run, records), nil
}

// ListRuns returns up to limit runs, newest first.
func (r *GormScanRunRepository) ListRuns(ctx context.Context, limit int) ([]*ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []*ScanRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "list runs", err)
	}
	return runs, nil
}

// DeleteRun removes a run and its findings.
func (r *GormScanRunRepository) DeleteRun(ctx context.Context, runID string) error {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&FindingRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("run_id = ?", runID).Delete(&ScanRun{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "delete run "+runID, err)
	}
	if deleted == 0 {
		return apperrors.New(apperrors.CodeNotFound, "run "+runID)
	}
	return nil
}
