package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/wisal-aid/coupon-service/internal/apperr"
	"github.com/wisal-aid/coupon-service/internal/models"
	"github.com/wisal-aid/coupon-service/internal/service"
)

type CreateRoundRequest struct {
	RoundNumber int        `json:"roundNumber"`
	CouponCount int        `json:"couponCount"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     time.Time  `json:"endDate"`
}

type UpdateRoundRequest struct {
	RoundNumber *int                `json:"roundNumber,omitempty"`
	CouponCount *int                `json:"couponCount,omitempty"`
	StartDate   *time.Time          `json:"startDate,omitempty"`
	EndDate     *time.Time          `json:"endDate,omitempty"`
	Status      *models.RoundStatus `json:"status,omitempty"`
}

type RoundHandler struct {
	rounds *service.RoundService
	log    *logrus.Logger
}

func NewRoundHandler(rounds *service.RoundService, log *logrus.Logger) *RoundHandler {
	return &RoundHandler{rounds: rounds, log: log}
}

// Create handles POST /distributions/{distributionId}/rounds.
func (h *RoundHandler) Create(w http.ResponseWriter, r *http.Request) {
	distributionID := chi.URLParam(r, "distributionId")

	var req CreateRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.log, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	round, err := h.rounds.Create(r.Context(), distributionID, service.CreateRoundInput{
		RoundNumber: req.RoundNumber,
		CouponCount: req.CouponCount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

// List handles GET /distributions/{distributionId}/rounds.
func (h *RoundHandler) List(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.rounds.FindAll(r.Context(), chi.URLParam(r, "distributionId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if rounds == nil {
		rounds = []models.RoundSummary{}
	}
	writeJSON(w, http.StatusOK, rounds)
}

// Get handles GET /rounds/{roundId}.
func (h *RoundHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc, err := h.rounds.FindOne(r.Context(), chi.URLParam(r, "roundId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// Update handles PUT /rounds/{roundId}.
func (h *RoundHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.log, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	round, err := h.rounds.Update(r.Context(), chi.URLParam(r, "roundId"), service.UpdateRoundInput{
		RoundNumber: req.RoundNumber,
		CouponCount: req.CouponCount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// Delete handles DELETE /rounds/{roundId}.
func (h *RoundHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.rounds.Delete(r.Context(), chi.URLParam(r, "roundId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "round deleted"})
}

// Stats handles GET /rounds/{roundId}/stats.
func (h *RoundHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rounds.GetRoundStats(r.Context(), chi.URLParam(r, "roundId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
