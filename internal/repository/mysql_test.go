package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"

	apperrors "github.com/memscope/pkg/errors"
)

func newMockRepo(t *testing.T) (*GormScanRunRepository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), 1)
	require.NoError(t, err)
	return NewGormScanRunRepository(db), mock
}

func TestMySQLScanRunRepository_SaveRun(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `scan_runs`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `finding_records`").WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveRun(context.Background(), sampleReport("uuid-1", time.Now())))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLScanRunRepository_SaveRunRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `scan_runs`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `finding_records`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.SaveRun(context.Background(), sampleReport("uuid-2", time.Now()))
	require.Error(t, err)
	assert.True(t, apperrors.IsDatabaseError(err))
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLScanRunRepository_GetRun(t *testing.T) {
	repo, mock := newMockRepo(t)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `scan_runs` WHERE run_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "run_id", "source", "layout", "base", "size", "started_at",
			"duration_us", "type_count", "string_count", "finding_count",
		}).AddRow(int64(1), "uuid-3", "self", "msvc-x86", uint64(0x1000), uint64(8), started, int64(20), 1, 0, 1))
	mock.ExpectQuery("SELECT \\* FROM `finding_records` WHERE run_id = \\? ORDER BY slot_offset ASC").
		WithArgs("uuid-3").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "run_id", "slot_offset", "address", "kind", "type_name", "decorated",
			"length", "capacity", "inline", "preview",
		}).AddRow(int64(1), "uuid-3", uint64(4), uint64(0x1004), "type", "Foo", ".?AVFoo@@", uint64(0), uint64(0), false, []byte{}))

	got, err := repo.GetRun(context.Background(), "uuid-3")
	require.NoError(t, err)
	assert.Equal(t, "msvc-x86", got.Layout)
	assert.Equal(t, 20*time.Microsecond, got.Duration)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, []string{"[004] Foo"}, got.Lines)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLScanRunRepository_ListRunsError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `scan_runs` ORDER BY started_at DESC").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListRuns(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsDatabaseError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
