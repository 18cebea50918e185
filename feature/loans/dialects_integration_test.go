//go:build integration

package loans_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/database/dbtest"
	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/query"
	"github.com/sohosai/hyperdashi-server/feature/items"
	"github.com/sohosai/hyperdashi-server/feature/loans"
)

func startPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("hyperdashi"),
		postgres.WithUsername("hyperdashi"),
		postgres.WithPassword("hyperdashi"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	url, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := database.Connect(ctx, database.Config{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

// The same scenario must behave identically on both engines.
func TestDialectEquivalence(t *testing.T) {
	engines := map[string]*database.DB{
		"sqlite":   dbtest.SQLite(t),
		"postgres": startPostgres(t),
	}

	for name, db := range engines {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			alloc := labels.NewAllocator(db, zap.NewNop(), nil)
			itemRepo := items.NewRepository(db, alloc, zap.NewNop(), nil)
			loanRepo := loans.NewRepository(db, zap.NewNop(), nil)

			mic, err := itemRepo.Create(ctx, items.CreateRequest{Name: "Wireless Mic", ConnectionNames: []string{"XLR"}})
			require.NoError(t, err)
			assert.Equal(t, "0001", mic.LabelID)
			_, err = itemRepo.Create(ctx, items.CreateRequest{Name: "wireless receiver"})
			require.NoError(t, err)

			// Search is case-insensitive on both engines.
			res, err := itemRepo.List(ctx, items.Filter{Search: "WIRELESS"}, query.SortSpec{}, query.Page{})
			require.NoError(t, err)
			assert.Equal(t, int64(2), res.Total)

			loan, err := loanRepo.Create(ctx, loans.CreateRequest{ItemID: mic.ID, StudentNumber: "S1", StudentName: "One"})
			require.NoError(t, err)
			_, err = loanRepo.Create(ctx, loans.CreateRequest{ItemID: mic.ID, StudentNumber: "S2", StudentName: "Two"})
			assert.True(t, apperror.Is(err, apperror.KindConflict))

			onLoan := true
			res, err = itemRepo.List(ctx, items.Filter{IsOnLoan: &onLoan}, query.SortSpec{}, query.Page{})
			require.NoError(t, err)
			require.Len(t, res.Items, 1)
			assert.Equal(t, mic.ID, res.Items[0].ID)

			when := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
			returned, err := loanRepo.Return(ctx, loan.ID, loans.ReturnRequest{ReturnDate: &when})
			require.NoError(t, err)
			require.NotNil(t, returned.ReturnDate)
			assert.True(t, when.Equal(*returned.ReturnDate))

			active := true
			list, err := loanRepo.List(ctx, loans.Filter{ActiveOnly: &active}, query.Page{})
			require.NoError(t, err)
			assert.Zero(t, list.Total)

			got, err := itemRepo.Get(ctx, mic.ID)
			require.NoError(t, err)
			assert.False(t, got.IsOnLoan)
			assert.Equal(t, []string{"XLR"}, got.ConnectionNames)
		})
	}
}
