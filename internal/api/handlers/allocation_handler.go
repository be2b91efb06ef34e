package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/wisal-aid/coupon-service/internal/api/middleware"
	"github.com/wisal-aid/coupon-service/internal/apperr"
	"github.com/wisal-aid/coupon-service/internal/models"
	"github.com/wisal-aid/coupon-service/internal/service"
)

type AllocateRequest struct {
	BeneficiaryIDs []string `json:"beneficiaryIds"`
}

type DeliverRequest struct {
	CouponCode  string `json:"couponCode"`
	DeliveredBy string `json:"deliveredBy,omitempty"`
}

type AllocationHandler struct {
	allocations *service.AllocationService
	log         *logrus.Logger
}

func NewAllocationHandler(allocations *service.AllocationService, log *logrus.Logger) *AllocationHandler {
	return &AllocationHandler{allocations: allocations, log: log}
}

// Allocate handles POST /rounds/{roundId}/allocations.
func (h *AllocationHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.log, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	result, err := h.allocations.Allocate(r.Context(), chi.URLParam(r, "roundId"), req.BeneficiaryIDs)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// List handles GET /rounds/{roundId}/allocations.
func (h *AllocationHandler) List(w http.ResponseWriter, r *http.Request) {
	allocs, err := h.allocations.GetRoundAllocations(r.Context(), chi.URLParam(r, "roundId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if allocs == nil {
		allocs = []models.AllocationWithBeneficiary{}
	}
	writeJSON(w, http.StatusOK, allocs)
}

// Deliver handles POST /rounds/{roundId}/allocations/deliver. When the body
// does not name the delivering employee, the token subject is recorded.
func (h *AllocationHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	var req DeliverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.log, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	deliveredBy := req.DeliveredBy
	if deliveredBy == "" {
		deliveredBy = middleware.Subject(r.Context())
	}

	receipt, err := h.allocations.Deliver(r.Context(), req.CouponCode, deliveredBy)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Stats handles GET /rounds/{roundId}/allocations/stats/{roundId}.
func (h *AllocationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.allocations.GetDeliveryStats(r.Context(), chi.URLParam(r, "roundId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Search handles GET /rounds/{roundId}/allocations/search/{couponCode}.
func (h *AllocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.allocations.SearchByCouponCode(r.Context(), chi.URLParam(r, "couponCode"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
