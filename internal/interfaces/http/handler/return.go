package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/interfaces/http/dto"
)

// ReturnHandler handles return endpoints
type ReturnHandler struct {
	BaseHandler
	returns *appledger.ReturnService
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(returns *appledger.ReturnService) *ReturnHandler {
	return &ReturnHandler{returns: returns}
}

// Process validates and credits one return against a document
func (h *ReturnHandler) Process(c *gin.Context) {
	var req dto.ProcessReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	documentID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	input := appledger.ProcessReturnInput{
		DocumentID:     documentID,
		SettlementType: ledger.SettlementType(req.SettlementType),
		Actor:          getActor(c),
	}
	for _, item := range req.Items {
		lineID, err := uuid.Parse(item.OriginalLineID)
		if err != nil {
			h.BadRequest(c, "Invalid original line ID format")
			return
		}
		input.Items = append(input.Items, appledger.ReturnItemInput{
			OriginalLineID:   lineID,
			ReturnedQuantity: item.ReturnedQuantity,
		})
	}

	result, err := h.returns.ProcessReturn(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ReturnResultResponse{
		ReturnID:     result.ReturnID.String(),
		ReturnNumber: result.ReturnNumber,
		CreditAmount: result.CreditAmount,
		NewBalance:   dto.BalanceFromProjection(result.NewBalance),
	})
}
