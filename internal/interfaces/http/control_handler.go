package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-engine/internal/application/adjustment"
	"github.com/jhoicas/inventario-engine/internal/application/control"
	"github.com/jhoicas/inventario-engine/internal/application/dto"
)

// ControlHandler sesiones de control de inventario y autorización de ajustes (protegido).
type ControlHandler struct {
	sessions *control.SessionManager
	auth     *adjustment.Authorization
}

// NewControlHandler construye el handler.
func NewControlHandler(sessions *control.SessionManager, auth *adjustment.Authorization) *ControlHandler {
	return &ControlHandler{sessions: sessions, auth: auth}
}

// Open POST /api/control-sessions.
func (h *ControlHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenSessionRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	s, err := h.sessions.Open(c.Context(), control.OpenInput{BranchID: in.BranchID, ProductIDs: in.ProductIDs, UserID: GetUserID(c)})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewControlSessionResponse(s))
}

// Get GET /api/control-sessions/:id.
func (h *ControlHandler) Get(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewControlSessionResponse(s))
}

// RecordCount PUT /api/control-sessions/:id/counts.
func (h *ControlHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	s, err := h.sessions.RecordCount(c.Context(), c.Params("id"), in.ProductID, in.StockFisico, in.Observaciones)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewControlSessionResponse(s))
}

// Finalize POST /api/control-sessions/:id/finalize. Un privilegiado aplica los ajustes;
// cualquier otro usuario genera una solicitud pendiente de autorización.
func (h *ControlHandler) Finalize(c *fiber.Ctx) error {
	s, err := h.sessions.Finalize(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewControlSessionResponse(s))
}

// ListPendingAdjustments GET /api/adjustments/pending.
func (h *ControlHandler) ListPendingAdjustments(c *fiber.Ctx) error {
	list, err := h.auth.GetPendingAdjustmentRequests(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewAdjustmentListResponse(list))
}

// GetAdjustment GET /api/adjustments/:id.
func (h *ControlHandler) GetAdjustment(c *fiber.Ctx) error {
	r, err := h.auth.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewAdjustmentResponse(r))
}

// AuthorizeAdjustment POST /api/adjustments/:id/authorize (solo privilegiados).
func (h *ControlHandler) AuthorizeAdjustment(c *fiber.Ctx) error {
	r, err := h.auth.Authorize(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewAdjustmentResponse(r))
}

// RejectAdjustment POST /api/adjustments/:id/reject (solo privilegiados, motivo obligatorio).
func (h *ControlHandler) RejectAdjustment(c *fiber.Ctx) error {
	var in dto.RejectRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	r, err := h.auth.Reject(c.Context(), c.Params("id"), GetUserID(c), in.Motivo)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewAdjustmentResponse(r))
}
