package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/inventario-engine/internal/application/adjustment"
	"github.com/jhoicas/inventario-engine/internal/application/control"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/application/production"
	"github.com/jhoicas/inventario-engine/internal/application/transfer"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/jhoicas/inventario-engine/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-engine/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-engine/internal/interfaces/http"
	"github.com/jhoicas/inventario-engine/pkg/config"
	"github.com/jhoicas/inventario-engine/pkg/logger"
)

// backend agrupa la persistencia y los colaboradores externos del driver elegido.
type backend struct {
	tx       inventory.TxRunner
	repos    repository.Repositories
	catalog  ports.ProductCatalog
	branches ports.BranchDirectory
	roles    ports.RoleService
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	be, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer be.close()

	zl := log.Zerolog()
	ledger := inventory.NewStockLedger(be.tx, be.repos, be.catalog, be.branches, cfg.Ledger.MaxRetries, zl)
	engine := production.NewRecipeEngine(be.repos.Recipes, be.catalog, ledger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledger,
		Receipts:    inventory.NewReceiptUseCase(ledger, zl),
		LowStock:    inventory.NewLowStockUseCase(be.repos.Stock, be.catalog),
		Recipes:     engine,
		Orders:      production.NewOrderManager(be.repos.Orders, engine, ledger, be.branches, zl),
		Transfers:   transfer.NewManager(be.repos.Transfers, ledger, be.catalog, be.branches, be.roles, zl),
		Sessions:    control.NewSessionManager(be.repos.Sessions, ledger, be.catalog, be.branches, be.roles, zl),
		Adjustments: adjustment.NewAuthorization(be.repos.Adjustments, ledger, be.roles, zl),
		JWTSecret:   cfg.JWT.Secret,
		Log:         zl,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		store := memory.NewStore()
		if cfg.Catalog.File != "" {
			if err := loadMemoryCatalog(store, cfg.Catalog.File); err != nil {
				return nil, err
			}
		}
		return &backend{
			tx:       store,
			repos:    store.Repositories(),
			catalog:  store,
			branches: store,
			roles:    store,
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &backend{
		tx:       postgres.NewTxRunner(pool),
		repos:    postgres.NewRepositories(pool),
		catalog:  postgres.NewProductRepository(pool),
		branches: postgres.NewBranchRepository(pool),
		roles:    postgres.NewUserRepository(pool),
		close:    pool.Close,
	}, nil
}

func loadMemoryCatalog(store *memory.Store, path string) error {
	c, err := config.LoadCatalog(path)
	if err != nil {
		return err
	}
	for _, b := range c.Branches {
		store.AddBranch(entity.Branch{ID: b.ID, Name: b.Name})
	}
	for _, p := range c.Products {
		cost, err := p.UnitCost()
		if err != nil {
			return err
		}
		store.AddProduct(entity.Product{ID: p.ID, Name: p.Name, Code: p.Code, UnitCost: cost})
	}
	for _, u := range c.Users {
		store.SetPrivileged(u.ID, u.Role == postgres.RoleAdmin)
	}
	return nil
}
