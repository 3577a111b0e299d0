package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilydias-boop/mcf-insight-hub/internal/adapters/postgres"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
	"github.com/emilydias-boop/mcf-insight-hub/internal/testutil/fixtures"
)

func TestTransactionRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	dbExecutor := postgres.NewDBExecutor(pool)
	repo := postgres.NewTransactionRepository(dbExecutor)

	t.Run("round-trips every column", func(t *testing.T) {
		tx := fixtures.NewTransaction().
			WithID("hubla-0001").
			WithPhone("+55 (11) 98765-4321").
			WithProduct("A009 - Incorporador Completo").
			WithAmounts("19500.00", "1625.50").
			WithGrossOverride("18000").
			WithInstallment(1, 12).
			WithSource(domain.SourceChannelHubla).
			Build()

		require.NoError(t, repo.Create(ctx, nil, tx))

		got, err := repo.ListBetween(ctx, nil, tx.SaleDate, tx.SaleDate.Add(time.Second))
		require.NoError(t, err)
		require.Len(t, got, 1)

		assert.Equal(t, tx.ID, got[0].ID)
		assert.Equal(t, "", got[0].CustomerEmail)
		assert.Equal(t, tx.CustomerPhone, got[0].CustomerPhone)
		assert.True(t, tx.GrossAmount.Equal(got[0].GrossAmount))
		assert.True(t, tx.NetAmount.Equal(got[0].NetAmount))
		require.NotNil(t, got[0].GrossOverride)
		assert.True(t, got[0].GrossOverride.Equal(fixtures.Dec("18000")))
		assert.Equal(t, 12, got[0].TotalInstallments)
		assert.Equal(t, domain.SourceChannelHubla, got[0].SourceChannel)
	})

	t.Run("duplicate id is ignored", func(t *testing.T) {
		tx := fixtures.NewTransaction().WithID("dup-1").Build()
		require.NoError(t, repo.Create(ctx, nil, tx))

		changed := fixtures.NewTransaction().WithID("dup-1").WithAmounts("1", "1").Build()
		require.NoError(t, repo.Create(ctx, nil, changed))

		got, err := repo.ListBetween(ctx, nil, tx.SaleDate, tx.SaleDate.Add(time.Second))
		require.NoError(t, err)
		for _, g := range got {
			if g.ID == "dup-1" {
				assert.True(t, g.GrossAmount.Equal(tx.GrossAmount))
			}
		}
	})

	t.Run("creates within explicit transaction", func(t *testing.T) {
		err := dbExecutor.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			return repo.Create(ctx, tx, fixtures.NewTransaction().WithID("in-tx-1").Build())
		})
		require.NoError(t, err)
	})
}

func TestTransactionRepository_ListHistory(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	dbExecutor := postgres.NewDBExecutor(pool)
	repo := postgres.NewTransactionRepository(dbExecutor)

	// Five records, two sharing a sale date so the id breaks the tie
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	dates := []time.Time{base, base, base.Add(time.Hour), base.Add(48 * time.Hour), base.Add(72 * time.Hour)}
	for i, d := range dates {
		tx := fixtures.NewTransaction().WithID(fmt.Sprintf("hist-%d", i)).WithSaleDate(d).Build()
		require.NoError(t, repo.Create(ctx, nil, tx))
	}

	var seen []string
	err := dbExecutor.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		cursor := ports.HistoryCursor{}
		for {
			page, err := repo.ListHistory(ctx, tx, cursor, 2)
			if err != nil {
				return err
			}
			for _, p := range page {
				seen = append(seen, p.ID)
			}
			if len(page) < 2 {
				return nil
			}
			cursor = ports.CursorAfter(page[len(page)-1])
		}
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hist-0", "hist-1", "hist-2", "hist-3", "hist-4"}, seen)
}

func TestTransactionRepository_ListBetween(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := postgres.NewTransactionRepository(postgres.NewDBExecutor(pool))

	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, tx := range []*domain.Transaction{
		fixtures.NewTransaction().WithID("jan").WithSaleDate(feb.Add(-time.Second)).Build(),
		fixtures.NewTransaction().WithID("feb-start").WithSaleDate(feb).Build(),
		fixtures.NewTransaction().WithID("feb-end").WithSaleDate(mar.Add(-time.Second)).Build(),
		fixtures.NewTransaction().WithID("mar").WithSaleDate(mar).Build(),
	} {
		require.NoError(t, repo.Create(ctx, nil, tx))
	}

	got, err := repo.ListBetween(ctx, nil, feb, mar)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, g := range got {
		ids[i] = g.ID
	}
	assert.Equal(t, []string{"feb-start", "feb-end"}, ids)
}
