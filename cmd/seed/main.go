// seed carga sucursales, productos y usuarios de referencia en PostgreSQL
// a partir de un archivo de catálogo (YAML, JSON o TOML).
//
// Uso: go run ./cmd/seed [ruta/catalogo.yaml]
// Sin argumento usa CATALOG_FILE. Crea el esquema si falta.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-engine/pkg/config"
	"github.com/jhoicas/inventario-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "seed"})

	path := cfg.Catalog.File
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		log.Fatal().Msg("indique el archivo de catálogo (argumento o CATALOG_FILE)")
	}
	catalog, err := config.LoadCatalog(path)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema")
	}

	branches := postgres.NewBranchRepository(pool)
	for _, b := range catalog.Branches {
		if err := branches.Upsert(ctx, entity.Branch{ID: b.ID, Name: b.Name}); err != nil {
			log.Fatal().Err(err).Str("branch_id", b.ID).Msg("sucursal")
		}
	}
	products := postgres.NewProductRepository(pool)
	for _, p := range catalog.Products {
		cost, _ := p.UnitCost()
		if err := products.Upsert(ctx, entity.Product{ID: p.ID, Name: p.Name, Code: p.Code, UnitCost: cost}); err != nil {
			log.Fatal().Err(err).Str("product_id", p.ID).Msg("producto")
		}
	}
	users := postgres.NewUserRepository(pool)
	for _, u := range catalog.Users {
		if err := users.Upsert(ctx, u.ID, u.Name, u.Role); err != nil {
			log.Fatal().Err(err).Str("user_id", u.ID).Msg("usuario")
		}
	}

	log.Info().
		Int("branches", len(catalog.Branches)).
		Int("products", len(catalog.Products)).
		Int("users", len(catalog.Users)).
		Msg("catálogo cargado")
}
