package control_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-engine/internal/application/adjustment"
	"github.com/jhoicas/inventario-engine/internal/application/control"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/infrastructure/memory"
)

const (
	branch   = "sucursal-a"
	productY = "producto-y"
	productZ = "producto-z"
	admin    = "admin-1"
	counter  = "bodeguero-1"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fixture struct {
	ledger   *inventory.StockLedger
	sessions *control.SessionManager
	auth     *adjustment.Authorization
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddBranch(entity.Branch{ID: branch, Name: "Centro"})
	store.AddProduct(entity.Product{ID: productY, Name: "Aceite", Code: "ACE"})
	store.AddProduct(entity.Product{ID: productZ, Name: "Sal", Code: "SAL"})
	store.SetPrivileged(admin, true)

	repos := store.Repositories()
	ledger := inventory.NewStockLedger(store, repos, store, store, 5, zerolog.Nop())
	ctx := context.Background()
	_, err := ledger.InitializeStock(ctx, branch, productY, decimal.Zero, dec("20"), admin)
	require.NoError(t, err)
	_, err = ledger.InitializeStock(ctx, branch, productZ, decimal.Zero, dec("7"), admin)
	require.NoError(t, err)

	return &fixture{
		ledger:   ledger,
		sessions: control.NewSessionManager(repos.Sessions, ledger, store, store, store, zerolog.Nop()),
		auth:     adjustment.NewAuthorization(repos.Adjustments, ledger, store, zerolog.Nop()),
	}
}

func (f *fixture) quantity(t *testing.T, product string) decimal.Decimal {
	t.Helper()
	q, err := f.ledger.GetQuantity(context.Background(), branch, product)
	require.NoError(t, err)
	return q
}

func (f *fixture) openAndCount(t *testing.T, fisico string) *entity.ControlSession {
	t.Helper()
	ctx := context.Background()
	s, err := f.sessions.Open(ctx, control.OpenInput{BranchID: branch, UserID: counter})
	require.NoError(t, err)
	require.Len(t, s.Lines, 2, "sin alcance se cuenta todo el stock de la sucursal")

	s, err = f.sessions.RecordCount(ctx, s.ID, productY, dec(fisico), "merma")
	require.NoError(t, err)
	return s
}

func line(s *entity.ControlSession, product string) entity.ControlLineItem {
	for _, l := range s.Lines {
		if l.ProductID == product {
			return l
		}
	}
	return entity.ControlLineItem{}
}

// ──────────────────────────────────────────────────────────────────────────────
// Apertura y conteo
// ──────────────────────────────────────────────────────────────────────────────

func TestOpen_UnaSesionPorSucursal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.sessions.Open(ctx, control.OpenInput{BranchID: branch, ProductIDs: []string{productY}, UserID: counter})
	require.NoError(t, err)
	require.Len(t, s.Lines, 1)
	assert.True(t, s.Lines[0].StockSistema.Equal(dec("20")))

	_, err = f.sessions.Open(ctx, control.OpenInput{BranchID: branch, UserID: counter})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestRecordCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.openAndCount(t, "18")

	l := line(s, productY)
	assert.True(t, l.Contado)
	assert.True(t, l.Diferencia.Equal(dec("-2")))

	// Corregir el conteo recalcula la diferencia.
	s, err := f.sessions.RecordCount(ctx, s.ID, productY, dec("21"), "")
	require.NoError(t, err)
	assert.True(t, line(s, productY).Diferencia.Equal(dec("1")))

	_, err = f.sessions.RecordCount(ctx, s.ID, "no-esta", dec("1"), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.sessions.RecordCount(ctx, s.ID, productY, dec("-1"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Finalización
// ──────────────────────────────────────────────────────────────────────────────

func TestFinalize_NoPrivilegiadoCreaSolicitud(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.openAndCount(t, "18")

	done, err := f.sessions.Finalize(ctx, s.ID, counter)
	require.NoError(t, err)
	assert.Equal(t, entity.ControlFinalizado, done.State)
	assert.False(t, done.AjustesAplicados)
	require.NotEmpty(t, done.AdjustmentRequestID)
	assert.True(t, f.quantity(t, productY).Equal(dec("20")), "sin autorización no hay cambio de stock")

	pending, err := f.auth.GetPendingAdjustmentRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	req := pending[0]
	assert.Equal(t, entity.AdjustmentPendiente, req.State)
	require.Len(t, req.Lines, 1, "solo las líneas contadas con diferencia")
	assert.True(t, req.Lines[0].Delta.Equal(dec("-2")))

	_, err = f.auth.Authorize(ctx, req.ID, counter)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	authorized, err := f.auth.Authorize(ctx, req.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentAutorizada, authorized.State)
	assert.True(t, f.quantity(t, productY).Equal(dec("18")))
	assert.True(t, f.quantity(t, productZ).Equal(dec("7")))

	session, err := f.sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, session.AjustesAplicados)

	_, err = f.auth.Authorize(ctx, req.ID, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestFinalize_PrivilegiadoAplicaDirecto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.openAndCount(t, "18")

	done, err := f.sessions.Finalize(ctx, s.ID, admin)
	require.NoError(t, err)
	assert.True(t, done.AjustesAplicados)
	assert.Empty(t, done.AdjustmentRequestID)
	assert.True(t, f.quantity(t, productY).Equal(dec("18")))

	movements, err := f.ledger.ListMovementsBySource(ctx, entity.SourceControl, s.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestFinalize_DosVecesNoCambiaStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.openAndCount(t, "18")

	_, err := f.sessions.Finalize(ctx, s.ID, admin)
	require.NoError(t, err)

	_, err = f.sessions.Finalize(ctx, s.ID, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.True(t, f.quantity(t, productY).Equal(dec("18")))

	movements, _ := f.ledger.ListMovementsBySource(ctx, entity.SourceControl, s.ID)
	assert.Len(t, movements, 1)

	_, err = f.sessions.RecordCount(ctx, s.ID, productY, dec("1"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	// Cerrada la sesión se puede abrir otra.
	_, err = f.sessions.Open(ctx, control.OpenInput{BranchID: branch, UserID: counter})
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Autorización de ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthorize_StockCambioQuedaPendiente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.openAndCount(t, "18")
	done, err := f.sessions.Finalize(ctx, s.ID, counter)
	require.NoError(t, err)

	// El stock bajó a 1 después de la solicitud: restar 2 ya no es posible.
	_, err = f.ledger.ApplyMovement(ctx, inventory.Movement{
		BranchID: branch, ProductID: productY, Delta: dec("-19"),
		Reason: "venta", SourceType: entity.SourceManual, SourceID: "v-1",
	}, false)
	require.NoError(t, err)

	_, err = f.auth.Authorize(ctx, done.AdjustmentRequestID, admin)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	req, err := f.auth.Get(ctx, done.AdjustmentRequestID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentPendiente, req.State)
	assert.True(t, f.quantity(t, productY).Equal(dec("1")))
}

func TestReject_SolicitudDeAjuste(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.openAndCount(t, "25")
	done, err := f.sessions.Finalize(ctx, s.ID, counter)
	require.NoError(t, err)

	_, err = f.auth.Reject(ctx, done.AdjustmentRequestID, admin, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.auth.Reject(ctx, done.AdjustmentRequestID, admin, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	rejected, err := f.auth.Reject(ctx, done.AdjustmentRequestID, admin, "reconteo")
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentRechazada, rejected.State)
	assert.True(t, f.quantity(t, productY).Equal(dec("20")))

	_, err = f.auth.Get(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFinalize_SinDiferencias(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.openAndCount(t, "20")

	done, err := f.sessions.Finalize(ctx, s.ID, counter)
	require.NoError(t, err)
	assert.Empty(t, done.AdjustmentRequestID)
	assert.True(t, done.AjustesAplicados)

	pending, _ := f.auth.GetPendingAdjustmentRequests(ctx)
	assert.Empty(t, pending)
}
