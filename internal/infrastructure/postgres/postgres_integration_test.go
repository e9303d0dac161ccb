//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-engine/internal/application/control"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/transfer"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-engine/pkg/config"
)

const (
	branchA  = "sucursal-a"
	branchB  = "sucursal-b"
	productX = "producto-x"
	admin    = "admin-1"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// newPool levanta un PostgreSQL desechable, aplica el esquema y carga el catálogo mínimo.
func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("inventario_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	// Dos veces: sin migraciones pendientes no es error.
	require.NoError(t, postgres.EnsureSchema(ctx, pool))

	branches := postgres.NewBranchRepository(pool)
	require.NoError(t, branches.Upsert(ctx, entity.Branch{ID: branchA, Name: "Centro"}))
	require.NoError(t, branches.Upsert(ctx, entity.Branch{ID: branchB, Name: "Norte"}))
	require.NoError(t, postgres.NewProductRepository(pool).Upsert(ctx, entity.Product{ID: productX, Name: "Harina", Code: "HAR", UnitCost: dec("2.5")}))
	require.NoError(t, postgres.NewUserRepository(pool).Upsert(ctx, admin, "Admin", postgres.RoleAdmin))
	return pool
}

func newLedger(pool *pgxpool.Pool) *inventory.StockLedger {
	return inventory.NewStockLedger(
		postgres.NewTxRunner(pool),
		postgres.NewRepositories(pool),
		postgres.NewProductRepository(pool),
		postgres.NewBranchRepository(pool),
		50,
		zerolog.Nop(),
	)
}

func TestLedger_Postgres(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ledger := newLedger(pool)

	_, err := ledger.InitializeStock(ctx, branchA, productX, dec("3"), dec("10"), admin)
	require.NoError(t, err)

	_, err = ledger.ApplyMovement(ctx, inventory.Movement{
		BranchID: branchA, ProductID: productX, Delta: dec("-11"),
		SourceType: entity.SourceManual, SourceID: "v-1",
	}, false)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	after, err := ledger.ApplyMovement(ctx, inventory.Movement{
		BranchID: branchA, ProductID: productX, Delta: dec("-7.5"),
		SourceType: entity.SourceManual, SourceID: "v-2",
	}, false)
	require.NoError(t, err)
	assert.True(t, after.Equal(dec("2.5")))

	low, err := ledger.GetLowStock(ctx, branchA)
	require.NoError(t, err)
	require.Len(t, low, 1)

	movements, err := ledger.ListMovementsBySource(ctx, entity.SourceManual, "v-2")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.True(t, movements[0].QuantityBefore.Equal(dec("10")))
	assert.Empty(t, movements[0].UserID, "sin usuario se guarda vacío")
}

func TestLedger_PostgresConcurrente(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ledger := newLedger(pool)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := ledger.ApplyMovement(gctx, inventory.Movement{
				BranchID: branchA, ProductID: productX, Delta: decimal.NewFromInt(1),
				SourceType: entity.SourceManual, SourceID: "c",
			}, false)
			return err
		})
	}
	require.NoError(t, g.Wait())

	q, err := ledger.GetQuantity(ctx, branchA, productX)
	require.NoError(t, err)
	assert.True(t, q.Equal(decimal.NewFromInt(20)))
}

func TestTransferYControl_Postgres(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ledger := newLedger(pool)
	repos := postgres.NewRepositories(pool)
	catalog := postgres.NewProductRepository(pool)
	branches := postgres.NewBranchRepository(pool)
	roles := postgres.NewUserRepository(pool)

	_, err := ledger.InitializeStock(ctx, branchA, productX, decimal.Zero, dec("15"), admin)
	require.NoError(t, err)

	transfers := transfer.NewManager(repos.Transfers, ledger, catalog, branches, roles, zerolog.Nop())
	res, err := transfers.Create(ctx, transfer.CreateInput{
		OriginBranchID:      branchA,
		DestinationBranchID: branchB,
		Lines:               []entity.TransferLine{{ProductID: productX, Quantity: dec("10")}},
		UserID:              "vendedor-1",
	})
	require.NoError(t, err)
	approved, err := transfers.Approve(ctx, res.Transfer.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferAprobada, approved.State)
	assert.Equal(t, int64(2), approved.Version)

	sessions := control.NewSessionManager(repos.Sessions, ledger, catalog, branches, roles, zerolog.Nop())
	s, err := sessions.Open(ctx, control.OpenInput{BranchID: branchA, UserID: admin})
	require.NoError(t, err)
	_, err = sessions.Open(ctx, control.OpenInput{BranchID: branchA, UserID: admin})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = sessions.RecordCount(ctx, s.ID, productX, dec("4"), "")
	require.NoError(t, err)
	done, err := sessions.Finalize(ctx, s.ID, admin)
	require.NoError(t, err)
	assert.True(t, done.AjustesAplicados)

	q, err := ledger.GetQuantity(ctx, branchA, productX)
	require.NoError(t, err)
	assert.True(t, q.Equal(dec("4")))
}
