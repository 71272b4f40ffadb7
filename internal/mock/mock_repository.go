package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/memscope/internal/repository"
	"github.com/memscope/pkg/model"
)

// MockScanRunRepository is a mock implementation of ScanRunRepository.
type MockScanRunRepository struct {
	mock.Mock
}

// SaveRun mocks the SaveRun method.
func (m *MockScanRunRepository) SaveRun(ctx context.Context, report *model.ScanReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// GetRun mocks the GetRun method.
func (m *MockScanRunRepository) GetRun(ctx context.Context, runID string) (*model.ScanReport, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScanReport), args.Error(1)
}

// ListRuns mocks the ListRuns method.
func (m *MockScanRunRepository) ListRuns(ctx context.Context, limit int) ([]*repository.ScanRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ScanRun), args.Error(1)
}

// DeleteRun mocks the DeleteRun method.
func (m *MockScanRunRepository) DeleteRun(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

// ExpectSaveRun sets up an expectation for SaveRun of any report.
func (m *MockScanRunRepository) ExpectSaveRun(err error) *mock.Call {
	return m.On("SaveRun", mock.Anything, mock.AnythingOfType("*model.ScanReport")).Return(err)
}

var _ repository.ScanRunRepository = (*MockScanRunRepository)(nil)
