package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/ironstore/backend/internal/interfaces/http/dto"
)

// DocumentHandler handles document endpoints: creation, listing and the
// ledger read surface (balance, history, audit trail)
type DocumentHandler struct {
	BaseHandler
	documents   *appledger.DocumentService
	balances    *appledger.BalanceService
	adjustments *appledger.AdjustmentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(
	documents *appledger.DocumentService,
	balances *appledger.BalanceService,
	adjustments *appledger.AdjustmentService,
) *DocumentHandler {
	return &DocumentHandler{
		documents:   documents,
		balances:    balances,
		adjustments: adjustments,
	}
}

// Create creates an invoice or vendor bill with its lines
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	counterpartyID, err := uuid.Parse(req.CounterpartyID)
	if err != nil {
		h.BadRequest(c, "Invalid counterparty ID format")
		return
	}

	input := appledger.CreateDocumentInput{
		Type:           ledger.DocumentType(req.Type),
		CounterpartyID: counterpartyID,
		Actor:          getActor(c),
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, appledger.DocumentLineInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	doc, err := h.documents.CreateDocument(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.DocumentFromDomain(doc))
}

// GetByID returns one document with its lines
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.DocumentFromDomain(doc))
}

// List returns documents matching the filter
func (h *DocumentHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  map[string]interface{}{},
	}
	if v := c.Query("type"); v != "" {
		filter.Filters["type"] = v
	}
	if v := c.Query("status"); v != "" {
		filter.Filters["status"] = v
	}
	if v := c.Query("counterparty_id"); v != "" {
		filter.Filters["counterparty_id"] = v
	}

	page, err := h.documents.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.DocumentResponse, len(page.Items))
	for i := range page.Items {
		items[i] = dto.DocumentFromDomain(&page.Items[i])
	}
	h.SuccessWithMeta(c, items, page.Total, req.Page, req.PageSize)
}

// Delete removes a document that has no ledger entries
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	if err := h.documents.DeleteDocument(c.Request.Context(), id, getActor(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Balance returns the projected balance of a document
func (h *DocumentHandler) Balance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	projection, err := h.balances.BalanceOf(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.BalanceFromProjection(projection))
}

// Ledger returns the full entry history of a document in append order
func (h *DocumentHandler) Ledger(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	entries, err := h.balances.LedgerHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, len(entries))
	for i := range entries {
		items[i] = dto.LedgerEntryFromDomain(&entries[i])
	}
	h.Success(c, items)
}

// AuditTrail returns the audit notes recorded against a document
func (h *DocumentHandler) AuditTrail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	notes, err := h.balances.AuditTrail(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.AuditNoteResponse, len(notes))
	for i := range notes {
		items[i] = dto.AuditNoteFromDomain(&notes[i])
	}
	h.Success(c, items)
}

// Adjust records one signed adjustment entry against a document
func (h *DocumentHandler) Adjust(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req dto.RecordAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.adjustments.RecordAdjustment(c.Request.Context(), appledger.RecordAdjustmentInput{
		DocumentID:   id,
		SignedAmount: req.SignedAmount,
		Memo:         req.Memo,
		Actor:        getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.AdjustmentResultResponse{
		EntryID:    result.EntryID.String(),
		NewBalance: dto.BalanceFromProjection(result.NewBalance),
	})
}
