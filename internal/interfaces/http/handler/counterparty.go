package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/ironstore/backend/internal/interfaces/http/dto"
)

// CounterpartyHandler handles customer and vendor endpoints
type CounterpartyHandler struct {
	BaseHandler
	counterparties *appledger.CounterpartyService
	balances       *appledger.BalanceService
}

// NewCounterpartyHandler creates a new CounterpartyHandler
func NewCounterpartyHandler(
	counterparties *appledger.CounterpartyService,
	balances *appledger.BalanceService,
) *CounterpartyHandler {
	return &CounterpartyHandler{
		counterparties: counterparties,
		balances:       balances,
	}
}

// Create creates a customer or vendor
func (h *CounterpartyHandler) Create(c *gin.Context) {
	var req dto.CreateCounterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cp, err := h.counterparties.CreateCounterparty(c.Request.Context(), appledger.CreateCounterpartyInput{
		Type:    partner.CounterpartyType(req.Type),
		Code:    req.Code,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Actor:   getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.CounterpartyFromDomain(cp))
}

// GetByID returns one counterparty
func (h *CounterpartyHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid counterparty ID format")
		return
	}

	cp, err := h.counterparties.GetCounterparty(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CounterpartyFromDomain(cp))
}

// List returns counterparties matching the filter
func (h *CounterpartyHandler) List(c *gin.Context) {
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

	page, err := h.counterparties.ListCounterparties(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.CounterpartyResponse, len(page.Items))
	for i := range page.Items {
		items[i] = dto.CounterpartyFromDomain(&page.Items[i])
	}
	h.SuccessWithMeta(c, items, page.Total, req.Page, req.PageSize)
}

// OpenDocuments returns the counterparty's open and partial documents
// oldest-first, the order the FIFO allocator walks them
func (h *CounterpartyHandler) OpenDocuments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid counterparty ID format")
		return
	}

	docs, err := h.balances.ListOpenDocuments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.DocumentResponse, len(docs))
	for i := range docs {
		items[i] = dto.DocumentFromDomain(&docs[i])
	}
	h.Success(c, items)
}

// CreditHistory returns the counterparty's immutable credit movements
func (h *CounterpartyHandler) CreditHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid counterparty ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Filters:  map[string]interface{}{},
	}
	if v := c.Query("transaction_type"); v != "" {
		filter.Filters["transaction_type"] = v
	}

	page, err := h.counterparties.CreditHistory(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.CreditTransactionResponse, len(page.Items))
	for i := range page.Items {
		items[i] = dto.CreditTransactionFromDomain(&page.Items[i])
	}
	h.SuccessWithMeta(c, items, page.Total, req.Page, req.PageSize)
}
