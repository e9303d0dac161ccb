package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-engine/internal/application/adjustment"
	"github.com/jhoicas/inventario-engine/internal/application/control"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/production"
	"github.com/jhoicas/inventario-engine/internal/application/transfer"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventario-engine/internal/interfaces/http"
)

const (
	adminID  = "admin-1"
	sellerID = "vendedor-1"
	branchA  = "sucursal-a"
	branchB  = "sucursal-b"
	flour    = "harina"
	bread    = "pan"
)

// newTestApp arma la API completa sobre el store en memoria con dos sucursales y dos productos.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	store.AddBranch(entity.Branch{ID: branchA, Name: "Centro"})
	store.AddBranch(entity.Branch{ID: branchB, Name: "Norte"})
	store.AddProduct(entity.Product{ID: flour, Name: "Harina", Code: "HAR"})
	store.AddProduct(entity.Product{ID: bread, Name: "Pan", Code: "PAN"})
	store.SetPrivileged(adminID, true)

	log := zerolog.Nop()
	repos := store.Repositories()
	ledger := inventory.NewStockLedger(store, repos, store, store, 5, log)
	engine := production.NewRecipeEngine(repos.Recipes, store, ledger)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:      ledger,
		Receipts:    inventory.NewReceiptUseCase(ledger, log),
		LowStock:    inventory.NewLowStockUseCase(repos.Stock, store),
		Recipes:     engine,
		Orders:      production.NewOrderManager(repos.Orders, engine, ledger, store, log),
		Transfers:   transfer.NewManager(repos.Transfers, ledger, store, store, store, log),
		Sessions:    control.NewSessionManager(repos.Sessions, ledger, store, store, store, log),
		Adjustments: adjustment.NewAuthorization(repos.Adjustments, ledger, store, log),
		JWTSecret:   testJWTSecret,
		Log:         log,
	})
	return app
}

// call hace la petición como userID y decodifica la respuesta JSON en un mapa (o lista).
func call(t *testing.T, app *fiber.App, method, path, userID string, body any) (int, any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, userID, ""))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func obj(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "se esperaba un objeto JSON, llegó %T", v)
	return m
}

func quantityOf(t *testing.T, app *fiber.App, branch, product string) string {
	t.Helper()
	status, body := call(t, app, http.MethodGet, "/api/stock/"+branch+"/"+product, adminID, nil)
	require.Equal(t, http.StatusOK, status)
	return obj(t, body)["quantity"].(string)
}

func initStock(t *testing.T, app *fiber.App, branch, product, opening string) {
	t.Helper()
	status, _ := call(t, app, http.MethodPost, "/api/stock/initialize", adminID, map[string]any{
		"branch_id": branch, "product_id": product, "minimum_quantity": "2", "opening_quantity": opening,
	})
	require.Equal(t, http.StatusCreated, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock y movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_RequiereToken(t *testing.T) {
	resp := doGet(t, newTestApp(t), "/api/stock/"+branchA+"/"+flour, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_StockYRecepciones(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, "0", quantityOf(t, app, branchA, flour), "sin entrada la cantidad es cero")

	initStock(t, app, branchA, flour, "10")
	assert.Equal(t, "10", quantityOf(t, app, branchA, flour))

	status, _ := call(t, app, http.MethodPost, "/api/receipts", sellerID, map[string]any{
		"branch_id": branchA, "reference": "OC-1",
		"lines": []map[string]any{{"product_id": flour, "quantity": "5"}},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "15", quantityOf(t, app, branchA, flour))

	status, body := call(t, app, http.MethodGet, "/api/movements?source_type=compra&source_id=OC-1", adminID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body, 1)

	status, body = call(t, app, http.MethodGet, "/api/movements?branch_id="+branchA+"&limit=1", adminID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body, 1)

	status, body = call(t, app, http.MethodGet, "/api/branches/"+branchA+"/stock", adminID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body, 1)
}

func TestRouter_ErroresDeValidacion(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, http.MethodPost, "/api/transfers", sellerID, map[string]any{
		"origin_branch_id": branchA, "destination_branch_id": branchA,
		"lines": []map[string]any{{"quantity": "1"}},
	})
	require.Equal(t, http.StatusBadRequest, status)
	m := obj(t, body)
	assert.Equal(t, "VALIDATION", m["code"])
	details, _ := m["details"].([]any)
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, obj(t, d)["field"].(string))
	}
	assert.Contains(t, fields, "destination_branch_id")
	assert.Contains(t, fields, "lines[0].product_id")

	status, _ = call(t, app, http.MethodGet, "/api/movements", adminID, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, app, http.MethodGet, "/api/movements?branch_id="+branchA+"&limit=500", adminID, nil)
	require.Equal(t, http.StatusBadRequest, status)
	details, _ = obj(t, body)["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "limit", obj(t, details[0])["field"])

	status, _ = call(t, app, http.MethodGet, "/api/movements?branch_id="+branchA+"&offset=-1", adminID, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, app, http.MethodGet, "/api/transfers/no-existe", adminID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", obj(t, body)["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_Traslado(t *testing.T) {
	app := newTestApp(t)
	initStock(t, app, branchA, flour, "15")

	status, body := call(t, app, http.MethodPost, "/api/transfers", sellerID, map[string]any{
		"origin_branch_id": branchA, "destination_branch_id": branchB,
		"lines": []map[string]any{{"product_id": flour, "quantity": "20"}},
	})
	require.Equal(t, http.StatusCreated, status)
	created := obj(t, body)
	assert.Equal(t, false, created["sufficient"])
	id := obj(t, created["transfer"])["id"].(string)

	status, _ = call(t, app, http.MethodPost, "/api/transfers/"+id+"/approve", sellerID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = call(t, app, http.MethodPost, "/api/transfers/"+id+"/approve", adminID, nil)
	require.Equal(t, http.StatusConflict, status)
	m := obj(t, body)
	assert.Equal(t, "INSUFFICIENT_STOCK", m["code"])
	assert.Len(t, m["details"], 1)
	assert.Equal(t, "15", quantityOf(t, app, branchA, flour))

	status, _ = call(t, app, http.MethodPost, "/api/transfers/"+id+"/reject", adminID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status, "el motivo es obligatorio")

	status, _ = call(t, app, http.MethodPost, "/api/transfers/"+id+"/reject", adminID, map[string]any{"motivo": "   "})
	assert.Equal(t, http.StatusBadRequest, status, "un motivo en blanco no cuenta")

	status, body = call(t, app, http.MethodPost, "/api/transfers/"+id+"/reject", adminID, map[string]any{"motivo": "excede stock"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rechazada", obj(t, body)["state"])

	status, body = call(t, app, http.MethodPost, "/api/transfers/"+id+"/approve", adminID, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE_TRANSITION", obj(t, body)["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Producción
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_Produccion(t *testing.T) {
	app := newTestApp(t)
	initStock(t, app, branchA, flour, "4")

	status, body := call(t, app, http.MethodPost, "/api/recipes", adminID, map[string]any{
		"product_id": bread, "name": "Pan", "yield_quantity": "10",
		"lines": []map[string]any{{"ingredient_id": flour, "quantity_per_yield": "2"}},
	})
	require.Equal(t, http.StatusCreated, status)
	recipeID := obj(t, body)["id"].(string)

	status, body = call(t, app, http.MethodPost, "/api/recipes/"+recipeID+"/requirements", adminID, map[string]any{
		"branch_id": branchA, "quantity": "30",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, obj(t, body)["sufficient"])

	status, body = call(t, app, http.MethodPost, "/api/production-orders", adminID, map[string]any{
		"recipe_id": recipeID, "branch_id": branchA, "quantity": "20",
	})
	require.Equal(t, http.StatusCreated, status)
	orderID := obj(t, body)["id"].(string)

	status, _ = call(t, app, http.MethodPost, "/api/production-orders/"+orderID+"/start", adminID, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = call(t, app, http.MethodPost, "/api/production-orders/"+orderID+"/complete", adminID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completada", obj(t, body)["state"])
	assert.Equal(t, "0", quantityOf(t, app, branchA, flour))
	assert.Equal(t, "20", quantityOf(t, app, branchA, bread))

	status, body = call(t, app, http.MethodGet, "/api/movements?source_type=produccion&source_id="+orderID, adminID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Control de inventario y ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ControlConAutorizacion(t *testing.T) {
	app := newTestApp(t)
	initStock(t, app, branchA, flour, "20")

	status, body := call(t, app, http.MethodPost, "/api/control-sessions", sellerID, map[string]any{"branch_id": branchA})
	require.Equal(t, http.StatusCreated, status)
	sessionID := obj(t, body)["id"].(string)

	status, _ = call(t, app, http.MethodPost, "/api/control-sessions", sellerID, map[string]any{"branch_id": branchA})
	assert.Equal(t, http.StatusConflict, status, "una sola sesión abierta por sucursal")

	status, _ = call(t, app, http.MethodPut, "/api/control-sessions/"+sessionID+"/counts", sellerID, map[string]any{
		"product_id": flour, "stock_fisico": "18", "observaciones": "merma",
	})
	require.Equal(t, http.StatusOK, status)

	status, body = call(t, app, http.MethodPost, "/api/control-sessions/"+sessionID+"/finalize", sellerID, nil)
	require.Equal(t, http.StatusOK, status)
	requestID := obj(t, body)["adjustment_request_id"].(string)
	require.NotEmpty(t, requestID)
	assert.Equal(t, "20", quantityOf(t, app, branchA, flour))

	status, body = call(t, app, http.MethodGet, "/api/adjustments/pending", adminID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body, 1)

	status, _ = call(t, app, http.MethodPost, "/api/adjustments/"+requestID+"/authorize", sellerID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = call(t, app, http.MethodPost, "/api/adjustments/"+requestID+"/authorize", adminID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "autorizada", obj(t, body)["state"])
	assert.Equal(t, "18", quantityOf(t, app, branchA, flour))

	status, body = call(t, app, http.MethodGet, "/api/control-sessions/"+sessionID, adminID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, obj(t, body)["ajustes_aplicados"])
}
