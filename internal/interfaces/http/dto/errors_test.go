package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{"DOCUMENT_NOT_FOUND", http.StatusNotFound},
		{"COUNTERPARTY_NOT_FOUND", http.StatusNotFound},
		{"LINE_NOT_FOUND", http.StatusNotFound},
		{"INVALID_AMOUNT", http.StatusBadRequest},
		{"INVALID_QUANTITY", http.StatusBadRequest},
		{"MEMO_REQUIRED", http.StatusBadRequest},
		{"OVERPAYMENT_REJECTED", http.StatusUnprocessableEntity},
		{"EMPTY_RETURN", http.StatusUnprocessableEntity},
		{"OVER_RETURN_REJECTED", http.StatusUnprocessableEntity},
		{"DOCUMENT_HAS_ENTRIES", http.StatusUnprocessableEntity},
		{"COUNTERPARTY_MISMATCH", http.StatusUnprocessableEntity},
		{"ALLOCATION_MISMATCH", http.StatusUnprocessableEntity},
		{"INSUFFICIENT_CREDIT", http.StatusUnprocessableEntity},
		// Unmapped codes are programming errors, surfaced as 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
		{"TRANSACTION_NOT_ACTIVE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorCodeHTTPStatusValues(t *testing.T) {
	for code, status := range ErrorCodeHTTPStatus {
		t.Run(code, func(t *testing.T) {
			assert.GreaterOrEqual(t, status, 400, "mapped statuses are client or server errors")
			assert.Less(t, status, 600)
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("DOCUMENT_NOT_FOUND", "Document does not exist")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "DOCUMENT_NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Document does not exist", resp.Error.Message)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	requestID := "req-123-456"
	resp := NewErrorResponseWithRequestID("OVERPAYMENT_REJECTED", "Payment exceeds remaining balance", requestID)

	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "OVERPAYMENT_REJECTED", resp.Error.Code)
	assert.Equal(t, "Payment exceeds remaining balance", resp.Error.Message)
	assert.Equal(t, requestID, resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "amount", Message: "Must be greater than zero"},
		{Field: "counterparty_id", Message: "Must be a valid UUID"},
	}
	requestID := "req-789"

	resp := NewValidationErrorResponse("Validation failed", requestID, details)

	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Validation failed", resp.Error.Message)
	assert.Equal(t, requestID, resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "amount", resp.Error.Details[0].Field)
	assert.Equal(t, "Must be greater than zero", resp.Error.Details[0].Message)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID("DOCUMENT_NOT_FOUND", "Document does not exist", "req-test-123")

	data, err := json.Marshal(resp)
	assert.NoError(t, err)

	var decoded Response
	err = json.Unmarshal(data, &decoded)
	assert.NoError(t, err)

	assert.False(t, decoded.Success)
	assert.NotNil(t, decoded.Error)
	assert.Equal(t, "DOCUMENT_NOT_FOUND", decoded.Error.Code)
	assert.Equal(t, "Document does not exist", decoded.Error.Message)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
}

func TestNewSuccessResponse(t *testing.T) {
	data := map[string]string{"document_number": "INV-00001"}
	resp := NewSuccessResponse(data)

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	data := []string{"item1", "item2"}
	resp := NewSuccessResponseWithMeta(data, 100, 1, 10)

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Meta)
	assert.Equal(t, int64(100), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 10, resp.Meta.PageSize)
	assert.Equal(t, 10, resp.Meta.TotalPages)
}

func TestNewSuccessResponseWithMetaPagination(t *testing.T) {
	tests := []struct {
		total         int64
		page          int
		pageSize      int
		expectedPages int
	}{
		{100, 1, 10, 10},
		{101, 1, 10, 11},
		{0, 1, 10, 0},
		{9, 1, 10, 1},
		{10, 1, 10, 1},
		{11, 1, 10, 2},
		{100, 1, 0, 0},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, tt.page, tt.pageSize)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.pageSize, resp.Meta.PageSize)
	}
}

func TestListRequestNormalize(t *testing.T) {
	t.Run("fills defaults for empty request", func(t *testing.T) {
		var req ListRequest
		req.Normalize()

		assert.Equal(t, 1, req.Page)
		assert.Equal(t, 20, req.PageSize)
		assert.Equal(t, "created_at", req.OrderBy)
		assert.Equal(t, "desc", req.OrderDir)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		req := ListRequest{Page: 3, PageSize: 50, OrderBy: "document_number", OrderDir: "asc"}
		req.Normalize()

		assert.Equal(t, 3, req.Page)
		assert.Equal(t, 50, req.PageSize)
		assert.Equal(t, "document_number", req.OrderBy)
		assert.Equal(t, "asc", req.OrderDir)
	})
}
