package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utafrali/order-confirmation/internal/service"
	"github.com/utafrali/order-confirmation/pkg/httputil"
	"github.com/utafrali/order-confirmation/pkg/validator"
)

// ConfirmationHandler handles HTTP requests for confirmation endpoints.
type ConfirmationHandler struct {
	service *service.ConfirmationService
	logger  *slog.Logger
}

// NewConfirmationHandler creates a new confirmation HTTP handler.
func NewConfirmationHandler(svc *service.ConfirmationService, logger *slog.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ConfirmRequest is the JSON request body for processing a confirmation.
type ConfirmRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	OrderID string `json:"order_id" validate:"required,uuid"`
	Status  string `json:"status" validate:"required"`
}

// --- Handlers ---

// Confirm handles POST /api/v1/confirmations
func (h *ConfirmationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.Confirm(r.Context(), service.ConfirmInput{
		UserID:  req.UserID,
		OrderID: req.OrderID,
		Status:  req.Status,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
