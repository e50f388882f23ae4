package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/interfaces/http/dto"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	BaseHandler
	payments *appledger.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *appledger.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Apply records one payment, targeted at a document when document_id is
// given, FIFO across the counterparty's outstanding documents otherwise
func (h *PaymentHandler) Apply(c *gin.Context) {
	var req dto.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	counterpartyID, err := uuid.Parse(req.CounterpartyID)
	if err != nil {
		h.BadRequest(c, "Invalid counterparty ID format")
		return
	}

	input := appledger.ApplyPaymentInput{
		CounterpartyID:   counterpartyID,
		Amount:           req.Amount,
		Method:           ledger.PaymentMethod(req.Method),
		Reference:        req.Reference,
		Actor:            getActor(c),
		AllowOverpayment: req.AllowOverpayment,
		UseCredit:        req.UseCredit,
	}
	if req.DocumentID != nil && *req.DocumentID != "" {
		documentID, err := uuid.Parse(*req.DocumentID)
		if err != nil {
			h.BadRequest(c, "Invalid document ID format")
			return
		}
		input.DocumentID = &documentID
	}

	result, err := h.payments.ApplyPayment(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toPaymentResultResponse(result))
}

// toPaymentResultResponse maps an application payment result to its DTO
func toPaymentResultResponse(result *appledger.PaymentResult) dto.PaymentResultResponse {
	allocations := make([]dto.AllocationResponse, len(result.Allocations))
	for i, alloc := range result.Allocations {
		allocations[i] = dto.AllocationResponse{
			DocumentID:     alloc.DocumentID.String(),
			DocumentNumber: alloc.DocumentNumber,
			AppliedAmount:  alloc.AppliedAmount,
		}
	}
	resp := dto.PaymentResultResponse{
		PaymentID:       result.PaymentID.String(),
		PaymentNumber:   result.PaymentNumber,
		Allocations:     allocations,
		UnappliedAmount: result.UnappliedAmount,
	}
	if result.NewBalance != nil {
		balance := dto.BalanceFromProjection(result.NewBalance)
		resp.NewBalance = &balance
	}
	return resp
}
