package repository

import (
	"time"

	"github.com/memscope/internal/report"
	"github.com/memscope/pkg/model"
)

// ScanRun is one row of scan history.
type ScanRun struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	RunID        string    `gorm:"column:run_id;size:64;uniqueIndex"`
	Source       string    `gorm:"column:source;size:16"`
	Layout       string    `gorm:"column:layout;size:64"`
	Base         uint64    `gorm:"column:base"`
	Size         uint64    `gorm:"column:size"`
	StartedAt    time.Time `gorm:"column:started_at;index"`
	DurationUs   int64     `gorm:"column:duration_us"`
	TypeCount    int       `gorm:"column:type_count"`
	StringCount  int       `gorm:"column:string_count"`
	FindingCount int       `gorm:"column:finding_count"`
}

// TableName specifies the table name for GORM.
func (ScanRun) TableName() string {
	return "scan_runs"
}

// FindingRecord is one finding of a stored run.
type FindingRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RunID     string `gorm:"column:run_id;size:64;index"`
	Offset    uint64 `gorm:"column:slot_offset"`
	Address   uint64 `gorm:"column:address"`
	Kind      string `gorm:"column:kind;size:16"`
	TypeName  string `gorm:"column:type_name;size:512"`
	Decorated string `gorm:"column:decorated;size:512"`
	Length    uint64 `gorm:"column:length"`
	Capacity  uint64 `gorm:"column:capacity"`
	Inline    bool   `gorm:"column:inline"`
	Preview   []byte `gorm:"column:preview"`
}

// TableName specifies the table name for GORM.
func (FindingRecord) TableName() string {
	return "finding_records"
}

// newScanRun converts a report to its history row.
func newScanRun(r *model.ScanReport) *ScanRun {
	counts := r.CountByKind()
	return &ScanRun{
		RunID:        r.RunID,
		Source:       string(r.Source),
		Layout:       r.Layout,
		Base:         r.Base,
		Size:         r.Size,
		StartedAt:    r.StartedAt,
		DurationUs:   r.Duration.Microseconds(),
		TypeCount:    counts[model.FindingKindType],
		StringCount:  counts[model.FindingKindString],
		FindingCount: len(r.Findings),
	}
}

// newFindingRecords converts findings to rows. Previews are stored as raw
// bytes since they may hold arbitrary binary data.
func newFindingRecords(runID string, findings []model.Finding) []FindingRecord {
	records := make([]FindingRecord, len(findings))
	for i, f := range findings {
		records[i] = FindingRecord{
			RunID:     runID,
			Offset:    f.Offset,
			Address:   f.Address,
			Kind:      string(f.Kind),
			TypeName:  f.TypeName,
			Decorated: f.Decorated,
			Length:    f.Length,
			Capacity:  f.Capacity,
			Inline:    f.Inline,
			Preview:   []byte(f.Preview),
		}
	}
	return records
}

// ToModel converts a history row back to a report without findings.
func (r *ScanRun) ToModel() *model.ScanReport {
	return &model.ScanReport{
		RunID:     r.RunID,
		Source:    model.SourceType(r.Source),
		Layout:    r.Layout,
		Base:      r.Base,
		Size:      r.Size,
		StartedAt: r.StartedAt,
		Duration:  time.Duration(r.DurationUs) * time.Microsecond,
	}
}

// ToModel converts a finding row back to a finding.
func (f *FindingRecord) ToModel() model.Finding {
	return model.Finding{
		Offset:    f.Offset,
		Address:   f.Address,
		Kind:      model.FindingKind(f.Kind),
		TypeName:  f.TypeName,
		Decorated: f.Decorated,
		Length:    f.Length,
		Capacity:  f.Capacity,
		Inline:    f.Inline,
		Preview:   string(f.Preview),
	}
}

// toReport assembles a full report and re-renders its lines.
func toReport(run *ScanRun, records []FindingRecord) *model.ScanReport {
	r := run.ToModel()
	r.Findings = make([]model.Finding, len(records))
	for i := range records {
		r.Findings[i] = records[i].ToModel()
	}
	r.Lines = report.Lines(r.Findings)
	return r
}
