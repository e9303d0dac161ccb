package production_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/production"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/infrastructure/memory"
)

const (
	branch   = "sucursal-a"
	flour    = "harina"
	sugar    = "azucar"
	bread    = "pan"
	testUser = "00000000-0000-0000-0000-000000000001"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fixture struct {
	store  *memory.Store
	ledger *inventory.StockLedger
	engine *production.RecipeEngine
	orders *production.OrderManager
	recipe *entity.Recipe
}

// newFixture receta de pan: rinde 10 con 2 de harina y 1 de azúcar.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddBranch(entity.Branch{ID: branch, Name: "Centro"})
	store.AddProduct(entity.Product{ID: flour, Name: "Harina", Code: "HAR", UnitCost: dec("2")})
	store.AddProduct(entity.Product{ID: sugar, Name: "Azúcar", Code: "AZU", UnitCost: dec("3")})
	store.AddProduct(entity.Product{ID: bread, Name: "Pan", Code: "PAN", UnitCost: dec("0")})

	repos := store.Repositories()
	ledger := inventory.NewStockLedger(store, repos, store, store, 5, zerolog.Nop())
	engine := production.NewRecipeEngine(repos.Recipes, store, ledger)
	recipe := &entity.Recipe{
		ProductID:     bread,
		Name:          "Pan blanco",
		YieldQuantity: dec("10"),
		Lines: []entity.RecipeLine{
			{IngredientID: flour, QuantityPerYield: dec("2")},
			{IngredientID: sugar, QuantityPerYield: dec("1")},
		},
	}
	require.NoError(t, engine.RegisterRecipe(context.Background(), recipe))
	return &fixture{
		store:  store,
		ledger: ledger,
		engine: engine,
		orders: production.NewOrderManager(repos.Orders, engine, ledger, store, zerolog.Nop()),
		recipe: recipe,
	}
}

func (f *fixture) stock(t *testing.T, product, qty string) {
	t.Helper()
	_, err := f.ledger.InitializeStock(context.Background(), branch, product, decimal.Zero, dec(qty), testUser)
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, product string) decimal.Decimal {
	t.Helper()
	q, err := f.ledger.GetQuantity(context.Background(), branch, product)
	require.NoError(t, err)
	return q
}

func (f *fixture) startedOrder(t *testing.T, qty string) *entity.ProductionOrder {
	t.Helper()
	ctx := context.Background()
	order, err := f.orders.Create(ctx, production.CreateOrderInput{
		RecipeID:  f.recipe.ID,
		BranchID:  branch,
		Quantity:  dec(qty),
		ManoObra:  dec("10"),
		Adicional: dec("1.5"),
		UserID:    testUser,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ProductionPendiente, order.State)
	order, err = f.orders.Start(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductionEnProceso, order.State)
	return order
}

// ──────────────────────────────────────────────────────────────────────────────
// RecipeEngine
// ──────────────────────────────────────────────────────────────────────────────

func TestComputeRequirements_Escala(t *testing.T) {
	f := newFixture(t)
	reqs, err := f.engine.ComputeRequirements(f.recipe, dec("5"))
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.True(t, reqs[0].Required.Equal(dec("1")))
	assert.True(t, reqs[1].Required.Equal(dec("0.5")))

	_, err = f.engine.ComputeRequirements(f.recipe, dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerifyAvailability_SinStockEsCero(t *testing.T) {
	f := newFixture(t)
	f.stock(t, flour, "0.5")

	availability, err := f.engine.Check(context.Background(), f.recipe.ID, branch, dec("5"))
	require.NoError(t, err)
	require.Len(t, availability, 2)

	assert.False(t, availability[0].Sufficient)
	assert.True(t, availability[0].Shortage.Equal(dec("0.5")))
	assert.True(t, availability[1].Available.IsZero())
	assert.True(t, availability[1].Shortage.Equal(dec("0.5")))
}

func TestRegisterRecipe_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.engine.RegisterRecipe(ctx, &entity.Recipe{
		ProductID:     bread,
		YieldQuantity: dec("0"),
		Lines:         []entity.RecipeLine{{IngredientID: flour, QuantityPerYield: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.engine.RegisterRecipe(ctx, &entity.Recipe{
		ProductID:     bread,
		YieldQuantity: dec("1"),
		Lines:         []entity.RecipeLine{{IngredientID: "levadura", QuantityPerYield: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.GetRecipe(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// OrderManager
// ──────────────────────────────────────────────────────────────────────────────

func TestComplete_InsumoInsuficiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, flour, "0.5")
	f.stock(t, sugar, "5")
	order := f.startedOrder(t, "5")

	_, err := f.orders.Complete(ctx, order.ID, testUser)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	require.Len(t, ise.Shortages, 1)
	assert.Equal(t, flour, ise.Shortages[0].ProductID)
	assert.True(t, ise.Shortages[0].Missing().Equal(dec("0.5")))

	got, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductionEnProceso, got.State)
	assert.True(t, f.quantity(t, flour).Equal(dec("0.5")))
	assert.True(t, f.quantity(t, sugar).Equal(dec("5")))
	assert.True(t, f.quantity(t, bread).IsZero())

	movements, err := f.ledger.ListMovementsBySource(ctx, entity.SourceProduction, order.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestComplete_ConsumeProduceYCostea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, flour, "3")
	f.stock(t, sugar, "2")
	order := f.startedOrder(t, "5")

	done, err := f.orders.Complete(ctx, order.ID, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductionCompletada, done.State)
	require.NotNil(t, done.CompletedAt)

	assert.True(t, f.quantity(t, flour).Equal(dec("2")))
	assert.True(t, f.quantity(t, sugar).Equal(dec("1.5")))
	assert.True(t, f.quantity(t, bread).Equal(dec("5")))

	movements, err := f.ledger.ListMovementsBySource(ctx, entity.SourceProduction, order.ID)
	require.NoError(t, err)
	assert.Len(t, movements, len(f.recipe.Lines)+1)

	// 1×2 + 0.5×3 = 3.5; 3.5 + 10 + 1.5 = 15; 15 / 5 = 3
	assert.True(t, done.Costs.MateriasPrimas.Equal(dec("3.5")))
	assert.True(t, done.Costs.Total.Equal(dec("15")))
	assert.True(t, done.Costs.Unitario.Equal(dec("3")))

	_, err = f.orders.Complete(ctx, order.ID, testUser)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.True(t, f.quantity(t, bread).Equal(dec("5")))
}

func TestTransiciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, production.CreateOrderInput{RecipeID: f.recipe.ID, BranchID: branch, Quantity: dec("1")})
	require.NoError(t, err)

	_, err = f.orders.Complete(ctx, order.ID, testUser)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "no se completa sin iniciar")

	cancelled, err := f.orders.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductionCancelada, cancelled.State)

	_, err = f.orders.Start(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.orders.Cancel(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.orders.Start(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.orders.ListByState(ctx, entity.ProductionCancelada)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, production.CreateOrderInput{RecipeID: "no-existe", BranchID: branch, Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orders.Create(ctx, production.CreateOrderInput{RecipeID: f.recipe.ID, BranchID: branch, Quantity: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orders.Create(ctx, production.CreateOrderInput{RecipeID: f.recipe.ID, BranchID: "otra", Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
