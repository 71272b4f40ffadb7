package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/memscope/internal/memory"
	"github.com/memscope/internal/report"
	"github.com/memscope/internal/repository"
	"github.com/memscope/internal/scanner"
	"github.com/memscope/internal/storage"
	"github.com/memscope/pkg/compression"
	apperrors "github.com/memscope/pkg/errors"
	"github.com/memscope/pkg/filter"
	"github.com/memscope/pkg/model"
	"github.com/memscope/pkg/telemetry"
)

// ScanOptions selects the memory source and what happens to the report.
type ScanOptions struct {
	Source Source
	// Filter drops findings before the report is rendered and stored.
	Filter *filter.TypeFilter
	// Save records the run in the history database.
	Save bool
	// Upload stores the JSON report in the configured storage.
	Upload bool
}

// Result is the outcome of Scan.
type Result struct {
	Report    *model.ScanReport
	UploadKey string
	UploadURL string
}

// ParseRequest turns a request into a base address and a scan size. The
// address text never fails to parse (garbage reads as 0) and the size is
// raised to scanner.MinScanSize.
func ParseRequest(req model.ScanRequest) (memory.Address, uint64) {
	size := req.Size
	if size < scanner.MinScanSize {
		size = scanner.MinScanSize
	}
	return memory.ParseAddress(req.AddressText), uint64(size)
}

// ScanRegion scans [base, base+size) of region and builds the report.
func (s *Service) ScanRegion(ctx context.Context, region memory.Region, source model.SourceType, base memory.Address, size uint64) *model.ScanReport {
	_, span := telemetry.Tracer().Start(ctx, "memscope.scan",
		trace.WithAttributes(
			telemetry.AttrScanSource.String(string(source)),
			telemetry.AttrScanBase.String(base.String()),
			telemetry.AttrScanSize.Int64(int64(size)),
			telemetry.AttrScanLayout.String(s.layout.Name),
		),
	)
	defer span.End()

	reader := memory.NewReader(region, s.layout.WordSize)
	engine := scanner.New(reader, s.layout,
		scanner.WithLogger(s.logger),
		scanner.WithResolver(s.resolver),
	)

	started := s.clock.Now()
	findings := engine.Collect(base, size)
	r := &model.ScanReport{
		RunID:     s.newRunID(),
		Source:    source,
		Layout:    s.layout.Name,
		Base:      uint64(base),
		Size:      size,
		StartedAt: started,
		Duration:  s.clock.Since(started),
		Findings:  findings,
		Lines:     report.Lines(findings),
	}

	span.SetAttributes(telemetry.AttrScanFindings.Int(len(findings)))
	s.logger.WithFields(map[string]interface{}{
		"run":    r.RunID,
		"source": source,
		"base":   base,
	}).Info("scanned %d bytes, %d findings in %v", size, len(findings), r.Duration)
	return r
}

// Scan opens the requested source, scans it and optionally saves and
// uploads the report. A failed save or upload is returned together with
// the complete result.
func (s *Service) Scan(ctx context.Context, req model.ScanRequest, opts ScanOptions) (*Result, error) {
	base, size := ParseRequest(req)
	if opts.Source.Type == "" {
		opts.Source.Type = model.SourceSelf
	}

	src, err := s.OpenSource(ctx, opts.Source)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(ctx); cerr != nil {
			s.logger.Warn("failed to close %s source: %v", opts.Source.Type, cerr)
		}
	}()

	r := s.ScanRegion(ctx, src.Region, opts.Source.Type, base, size)
	if opts.Filter != nil && !opts.Filter.IsPassThrough() {
		r.Findings = opts.Filter.Apply(r.Findings)
		r.Lines = report.Lines(r.Findings)
	}

	result := &Result{Report: r}
	return result, s.persist(ctx, result, opts)
}

func (s *Service) persist(ctx context.Context, result *Result, opts ScanOptions) error {
	if !opts.Save && !opts.Upload {
		return nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "memscope.persist")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	if opts.Save {
		g.Go(func() error {
			if err := s.InitDatabase(gctx); err != nil {
				return err
			}
			if err := s.runs.SaveRun(gctx, result.Report); err != nil {
				return err
			}
			s.logger.Info("saved run %s", result.Report.RunID)
			return nil
		})
	}
	if opts.Upload {
		g.Go(func() error {
			if err := s.InitStorage(); err != nil {
				return err
			}
			t, err := compression.ParseType(s.config.Scan.Compression)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeConfigError, "report compression", err)
			}
			key, err := storage.UploadReport(gctx, s.store, s.config.Storage.Prefix, result.Report, t)
			if err != nil {
				return err
			}
			result.UploadKey = key
			result.UploadURL = s.store.GetURL(key)
			s.logger.Info("uploaded report to %s", result.UploadURL)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// History lists the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*repository.ScanRun, error) {
	if err := s.InitDatabase(ctx); err != nil {
		return nil, err
	}
	return s.runs.ListRuns(ctx, limit)
}

// GetRun loads a saved run with its findings.
func (s *Service) GetRun(ctx context.Context, runID string) (*model.ScanReport, error) {
	if runID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "run id is required")
	}
	if err := s.InitDatabase(ctx); err != nil {
		return nil, err
	}
	r, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return r, nil
}
