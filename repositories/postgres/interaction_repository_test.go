package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/shopping-assistant/models"
	"go.uber.org/zap/zaptest"
)

func newMockRepo(t *testing.T) (*InteractionRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := zaptest.NewLogger(t)
	repo := NewInteractionRepository(NewDBFromSQL(sqlDB, logger), logger).(*InteractionRepository)
	return repo, mock
}

func TestInteractionRepository_Insert(t *testing.T) {
	repo, mock := newMockRepo(t)

	i := models.NewInteraction("req-1", "Is it waterproof?", 1)
	i.MarkAnswered("Yes, IPX7.", false, 2, 640)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assistant_interactions")).
		WithArgs(i.ID, "req-1", "Is it waterproof?", i.Answer, models.InteractionOutcomeAnswered,
			1, 2, 640, i.ErrorMessage, i.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), i))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractionRepository_InsertError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assistant_interactions")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), models.NewInteraction("req-1", "q", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert interaction")
}

func TestDB_HealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	db := NewDBFromSQL(sqlDB, zaptest.NewLogger(t))

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	require.NoError(t, db.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	err = db.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database health check failed")
}

func TestDB_InitSchema(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS assistant_interactions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewDBFromSQL(sqlDB, zaptest.NewLogger(t)).InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
