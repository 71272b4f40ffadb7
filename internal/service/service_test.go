package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/memscope/internal/demangle"
	"github.com/memscope/internal/memory"
	mocks "github.com/memscope/internal/mock"
	"github.com/memscope/internal/testutil"
	"github.com/memscope/pkg/config"
	apperrors "github.com/memscope/pkg/errors"
	"github.com/memscope/pkg/filter"
	"github.com/memscope/pkg/model"
	"github.com/memscope/pkg/telemetry"
	"github.com/memscope/pkg/utils"
)

const imgBase = memory.Address(0x10000)

// writeImage dumps a 0x1000 byte image to disk: a pointer to a
// cocos2d::Layer object at offset 0 and an inline "hello" at offset 8.
func writeImage(t *testing.T) string {
	t.Helper()
	img := testutil.NewImage(t, imgBase, 0x1000)
	img.PutRTTIObject(imgBase+0x400, imgBase+0x504, imgBase+0x600, imgBase+0x700, ".?AVLayer@cocos2d@@")
	img.PutPtr(imgBase, imgBase+0x400)
	img.PutU32(imgBase+4, 0xdeadbeef)
	img.PutInlineString(imgBase+8, "hello")

	path := filepath.Join(t.TempDir(), "dump.bin")
	require.NoError(t, os.WriteFile(path, img.Data, 0644))
	return path
}

func imageSource(path string) Source {
	return Source{Type: model.SourceImage, ImagePath: path, ImageBase: "0x10000"}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithResolver(demangle.NewResolver(nil)),
		WithRunIDFunc(func() string { return "run-1" }),
	}, opts...)
	svc, err := New(config.Default(), opts...)
	require.NoError(t, err)
	return svc
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      model.ScanRequest
		wantBase memory.Address
		wantSize uint64
	}{
		{"hex with prefix", model.ScanRequest{AddressText: "0x1000", Size: 256}, 0x1000, 256},
		{"hex without prefix", model.ScanRequest{AddressText: "1000", Size: 8}, 0x1000, 8},
		{"size below minimum", model.ScanRequest{AddressText: "0x10", Size: 3}, 0x10, 4},
		{"negative size", model.ScanRequest{AddressText: "0x10", Size: -100}, 0x10, 4},
		{"garbage address", model.ScanRequest{AddressText: "zz", Size: 0}, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, size := ParseRequest(tt.req)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestParseRequest_SelectedObject(t *testing.T) {
	base, size := ParseRequest(model.RequestForPointer(0xcafe0, 64))
	assert.Equal(t, memory.Address(0xcafe0), base)
	assert.Equal(t, uint64(64), size)
}

func TestNew_RejectsInvalidLayout(t *testing.T) {
	cfg := config.Default()
	cfg.Platform.WordSize = 3

	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigError, apperrors.GetErrorCode(err))
}

func TestLayoutFromConfig_Defaults(t *testing.T) {
	svc := newTestService(t)
	layout := svc.Layout()
	assert.Equal(t, "msvc-x86", layout.Name)
	assert.Equal(t, 4, layout.WordSize)
	assert.Equal(t, uint64(16), layout.StringSizeOffset)
	assert.Equal(t, uint64(20), layout.StringCapacityOffset)
	assert.Equal(t, uint64(15), layout.InlineCapacity)
}

func TestScan_Image(t *testing.T) {
	path := writeImage(t)
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := &utils.FixedClock{Current: start, Step: 5 * time.Millisecond}
	svc := newTestService(t, WithClock(clock))

	result, err := svc.Scan(context.Background(),
		model.ScanRequest{AddressText: "0x10000", Size: 16},
		ScanOptions{Source: imageSource(path)})
	require.NoError(t, err)

	r := result.Report
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, model.SourceImage, r.Source)
	assert.Equal(t, "msvc-x86", r.Layout)
	assert.Equal(t, uint64(0x10000), r.Base)
	assert.Equal(t, uint64(16), r.Size)
	assert.Equal(t, start, r.StartedAt)
	assert.Equal(t, 5*time.Millisecond, r.Duration)
	assert.Equal(t, []string{
		"[000] cocos2d::Layer",
		`[008] maybe string 5 > 15, "hello"`,
	}, r.Lines)
	assert.Empty(t, result.UploadKey)
}

func TestScan_ReRunReadsCurrentContents(t *testing.T) {
	path := writeImage(t)
	svc := newTestService(t)
	req := model.ScanRequest{AddressText: "0x10000", Size: 16}

	first, err := svc.Scan(context.Background(), req, ScanOptions{Source: imageSource(path)})
	require.NoError(t, err)
	require.Len(t, first.Report.Findings, 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[8+20] = 3 // capacity below the inline buffer
	require.NoError(t, os.WriteFile(path, data, 0644))

	second, err := svc.Scan(context.Background(), req, ScanOptions{Source: imageSource(path)})
	require.NoError(t, err)
	assert.Equal(t, []string{"[000] cocos2d::Layer"}, second.Report.Lines)
}

func TestScan_Filter(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Scan(context.Background(),
		model.ScanRequest{AddressText: "0x10000", Size: 16},
		ScanOptions{
			Source: imageSource(writeImage(t)),
			Filter: filter.NewTypeFilter().TypesOnly(true),
		})
	require.NoError(t, err)

	require.Len(t, result.Report.Findings, 1)
	assert.Equal(t, []string{"[000] cocos2d::Layer"}, result.Report.Lines)
}

func TestScan_OutsideImageFindsNothing(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Scan(context.Background(),
		model.ScanRequest{AddressText: "0x0", Size: 0x100},
		ScanOptions{Source: imageSource(writeImage(t))})
	require.NoError(t, err)
	assert.Empty(t, result.Report.Findings)
	assert.Empty(t, result.Report.Lines)
}

func TestScan_SourceErrors(t *testing.T) {
	svc := newTestService(t)
	req := model.ScanRequest{AddressText: "0x10000", Size: 16}

	tests := []struct {
		name string
		src  Source
		code string
	}{
		{"missing image path", Source{Type: model.SourceImage}, apperrors.CodeInvalidInput},
		{"missing image file", Source{Type: model.SourceImage, ImagePath: filepath.Join(t.TempDir(), "none.bin")}, apperrors.CodeSourceError},
		{"missing wasm path", Source{Type: model.SourceWasm}, apperrors.CodeInvalidInput},
		{"missing wasm file", Source{Type: model.SourceWasm, WasmPath: filepath.Join(t.TempDir(), "none.wasm")}, apperrors.CodeSourceError},
		{"unknown source", Source{Type: "core"}, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Scan(context.Background(), req, ScanOptions{Source: tt.src})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.code, apperrors.GetErrorCode(err))
		})
	}
}

func TestScan_SaveAndUpload(t *testing.T) {
	runs := &mocks.MockScanRunRepository{}
	store := &mocks.MockStorage{}
	runs.ExpectSaveRun(nil)
	store.On("Upload", mock.Anything, "memscope/reports/run-1.json", mock.MatchedBy(func(data []byte) bool {
		return len(data) > 0 && data[0] == '{'
	})).Return(nil)
	store.ExpectGetURL("memscope/reports/run-1.json", "https://bucket.example.com/memscope/reports/run-1.json")

	svc := newTestService(t, WithRunRepository(runs), WithStorage(store))
	result, err := svc.Scan(context.Background(),
		model.ScanRequest{AddressText: "0x10000", Size: 16},
		ScanOptions{Source: imageSource(writeImage(t)), Save: true, Upload: true})
	require.NoError(t, err)

	assert.Equal(t, "memscope/reports/run-1.json", result.UploadKey)
	assert.Equal(t, "https://bucket.example.com/memscope/reports/run-1.json", result.UploadURL)
	runs.AssertExpectations(t)
	store.AssertExpectations(t)

	saved := runs.Calls[0].Arguments.Get(1).(*model.ScanReport)
	assert.Same(t, result.Report, saved)
}

func TestScan_SaveFailureKeepsResult(t *testing.T) {
	runs := &mocks.MockScanRunRepository{}
	runs.ExpectSaveRun(apperrors.New(apperrors.CodeDatabaseError, "disk full"))

	svc := newTestService(t, WithRunRepository(runs))
	result, err := svc.Scan(context.Background(),
		model.ScanRequest{AddressText: "0x10000", Size: 16},
		ScanOptions{Source: imageSource(writeImage(t)), Save: true})

	require.Error(t, err)
	assert.True(t, apperrors.IsDatabaseError(err))
	require.NotNil(t, result)
	assert.Len(t, result.Report.Lines, 2)
}

func TestScan_UploadToLocalStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Scan.Compression = "gzip"

	svc, err := New(cfg, WithRunIDFunc(func() string { return "run-gz" }))
	require.NoError(t, err)

	result, err := svc.Scan(context.Background(),
		model.ScanRequest{AddressText: "0x10000", Size: 16},
		ScanOptions{Source: imageSource(writeImage(t)), Upload: true})
	require.NoError(t, err)

	assert.Equal(t, "memscope/reports/run-gz.json.gz", result.UploadKey)
	assert.FileExists(t, filepath.Join(cfg.Storage.LocalPath, "memscope", "reports", "run-gz.json.gz"))
}

func TestHistory_SqliteRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Enabled = true
	cfg.Database.Path = filepath.Join(t.TempDir(), "history.db")

	ids := []string{"run-a", "run-b"}
	next := 0
	svc, err := New(cfg, WithRunIDFunc(func() string {
		id := ids[next]
		next++
		return id
	}))
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	req := model.ScanRequest{AddressText: "0x10000", Size: 16}
	path := writeImage(t)
	for range ids {
		_, err := svc.Scan(ctx, req, ScanOptions{Source: imageSource(path), Save: true})
		require.NoError(t, err)
	}

	runs, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	got, err := svc.GetRun(ctx, "run-b")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[000] cocos2d::Layer",
		`[008] maybe string 5 > 15, "hello"`,
	}, got.Lines)

	_, err = svc.GetRun(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetRun(ctx, "")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetErrorCode(err))
}

func TestScanRegion_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	img := testutil.NewImage(t, imgBase, 64)
	img.PutInlineString(imgBase, "span")

	svc := newTestService(t)
	r := svc.ScanRegion(context.Background(), img.Region(), model.SourceImage, imgBase, 8)
	require.Len(t, r.Findings, 1)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "memscope.scan", spans[0].Name())

	attrs := map[string]interface{}{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "image", attrs[string(telemetry.AttrScanSource)])
	assert.Equal(t, int64(8), attrs[string(telemetry.AttrScanSize)])
	assert.Equal(t, int64(1), attrs[string(telemetry.AttrScanFindings)])
	assert.Equal(t, "msvc-x86", attrs[string(telemetry.AttrScanLayout)])
}

func TestHistory_DatabaseDisabled(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.History(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigError, apperrors.GetErrorCode(err))
}
