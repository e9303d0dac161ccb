package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-engine/internal/application/dto"
	"github.com/jhoicas/inventario-engine/internal/application/transfer"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// TransferHandler traslados entre sucursales (protegido).
type TransferHandler struct {
	transfers *transfer.Manager
}

// NewTransferHandler construye el handler.
func NewTransferHandler(transfers *transfer.Manager) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Create POST /api/transfers. La verificación de stock en origen es informativa.
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	lines := make([]entity.TransferLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, entity.TransferLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	res, err := h.transfers.Create(c.Context(), transfer.CreateInput{
		OriginBranchID:      in.OriginBranchID,
		DestinationBranchID: in.DestinationBranchID,
		Lines:               lines,
		UserID:              GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateTransferResponse{
		Transfer:     dto.NewTransferResponse(res.Transfer),
		Availability: res.Availability,
		Sufficient:   res.Sufficient,
	})
}

// Get GET /api/transfers/:id.
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	t, err := h.transfers.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewTransferResponse(t))
}

// ListPending GET /api/transfers/pending.
func (h *TransferHandler) ListPending(c *fiber.Ctx) error {
	list, err := h.transfers.GetPendingTransfers(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewTransferListResponse(list))
}

// Approve POST /api/transfers/:id/approve (solo privilegiados).
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	t, err := h.transfers.Approve(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewTransferResponse(t))
}

// Reject POST /api/transfers/:id/reject (solo privilegiados, motivo obligatorio).
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	t, err := h.transfers.Reject(c.Context(), c.Params("id"), GetUserID(c), in.Motivo)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewTransferResponse(t))
}
