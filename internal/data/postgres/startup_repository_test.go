package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/startup-investment-ledger/internal/domain/startup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startupRowColumns = []string{"id", "owner_id", "name", "description", "industry", "stage", "funding_required", "funding_received", "created_at", "updated_at"}

func TestStartupRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &StartupRepository{querier: mock, logger: newTestLogger()}
	s, err := startup.NewStartup("owner-1", "Acme", "robots", "robotics", "seed", 1_000_000)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO startups`).
		WithArgs(s.ID, s.OwnerID, s.Name, s.Description, s.Industry, s.Stage, s.FundingRequired, s.FundingReceived, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(ctx, s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartupRepository_Exists(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &StartupRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()
	query := `SELECT EXISTS \(SELECT 1 FROM startups WHERE id = \$1\)`

	mock.ExpectQuery(query).WithArgs(id).WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	exists, err := repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(query).WithArgs(id).WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	exists, err = repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartupRepository_FindAndLock(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &StartupRepository{querier: mock, logger: newTestLogger()}
	now := time.Now().UTC()
	expected := &startup.Startup{
		ID:              uuid.New(),
		OwnerID:         "owner-1",
		Name:            "Acme",
		Description:     "robots",
		Industry:        "robotics",
		Stage:           "seed",
		FundingRequired: 1_000_000,
		FundingReceived: 500,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	row := func() *pgxmock.Rows {
		return pgxmock.NewRows(startupRowColumns).AddRow(expected.ID, expected.OwnerID, expected.Name, expected.Description,
			expected.Industry, expected.Stage, expected.FundingRequired, expected.FundingReceived, expected.CreatedAt, expected.UpdatedAt)
	}

	t.Run("find", func(t *testing.T) {
		mock.ExpectQuery(`FROM startups\s+WHERE id = \$1`).WithArgs(expected.ID).WillReturnRows(row())
		s, err := repo.FindByID(ctx, expected.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, s)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock uses FOR UPDATE", func(t *testing.T) {
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(expected.ID).WillReturnRows(row())
		s, err := repo.LockByID(ctx, expected.ID)
		require.NoError(t, err)
		assert.Equal(t, expected.FundingReceived, s.FundingReceived)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM startups`).WithArgs(expected.ID).WillReturnError(pgx.ErrNoRows)
		s, err := repo.FindByID(ctx, expected.ID)
		assert.Nil(t, s)
		var notFound startup.ErrStartupNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, expected.ID, notFound.StartupID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStartupRepository_IncrementFunding(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &StartupRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()
	query := `SET funding_received = funding_received \+ \$1`

	t.Run("atomic delta", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(int64(500), pgxmock.AnyArg(), id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.IncrementFunding(ctx, id, 500))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing startup", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(int64(500), pgxmock.AnyArg(), id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.IncrementFunding(ctx, id, 500)
		assert.ErrorIs(t, err, startup.ErrStartupNotFound{StartupID: id})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("deadlock detected")
		mock.ExpectExec(query).WithArgs(int64(500), pgxmock.AnyArg(), id).WillReturnError(dbErr)

		err := repo.IncrementFunding(ctx, id, 500)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStartupRepository_SetFunding(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &StartupRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()

	mock.ExpectExec(`SET funding_received = \$1`).WithArgs(int64(700), pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.SetFunding(ctx, id, 700))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartupRepository_ListIDs(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &StartupRepository{querier: mock, logger: newTestLogger()}
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT id FROM startups`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(a).AddRow(b))

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
