package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/umebot/insight/internal/analysis"
	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
	"github.com/umebot/insight/pkg/logger"
)

const dateFmt = "2006-01-02"

// AnalysisService is what the analysis endpoints need from analysis.Service
type AnalysisService interface {
	RunCompleteAnalysis(ctx context.Context, start, end time.Time, includeForecast bool) (*contracts.AnalysisReport, error)
	Forecast(ctx context.Context, end time.Time, horizon int) (*contracts.ForecastOutcome, error)
	KeyMetrics(ctx context.Context, end time.Time) (*contracts.KeyMetrics, error)
	Run(ctx context.Context, id string) (*analysis.RunRecord, error)
}

// AnalysisHandler handles analysis API endpoints
// ⭐ SSOT: analysis API handlers live in this struct only
type AnalysisHandler struct {
	service        AnalysisService
	defaultHorizon int
	logger         *logger.Logger
	now            func() time.Time
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisService, defaultHorizon int, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:        service,
		defaultHorizon: defaultHorizon,
		logger:         log,
		now:            time.Now,
	}
}

// CausalRequest is the body of POST /api/analysis/causal
type CausalRequest struct {
	StartDate       string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string `json:"end_date" validate:"required,datetime=2006-01-02"`
	IncludeForecast *bool  `json:"include_forecast"`
}

// RunCausal runs the complete analysis for a date range
// POST /api/analysis/causal
func (h *AnalysisHandler) RunCausal(w http.ResponseWriter, r *http.Request) {
	var req CausalRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}

	start, _ := time.Parse(dateFmt, req.StartDate)
	end, _ := time.Parse(dateFmt, req.EndDate)
	includeForecast := req.IncludeForecast == nil || *req.IncludeForecast

	report, err := h.service.RunCompleteAnalysis(r.Context(), start, end, includeForecast)
	switch {
	case errors.Is(err, analysis.ErrInvalidRange):
		respondValidation(w, map[string]string{"start_date": "must not be after end_date"})
		return
	case errors.Is(err, features.ErrEmptyPanel):
		respondError(w, http.StatusNotFound, "no sales data in range")
		return
	case err != nil:
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"start": req.StartDate,
			"end":   req.EndDate,
		}).Error("Causal analysis failed")
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetForecast forecasts daily revenue
// GET /api/analysis/forecast?days=7&end=2024-06-30
func (h *AnalysisHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	days, err := parseQueryInt(r, "days", h.defaultHorizon, 1, 90)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	end, err := h.endDate(r)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	outcome, err := h.service.Forecast(r.Context(), end, days)
	if err != nil {
		h.logger.WithError(err).Error("Forecast failed")
		respondError(w, http.StatusInternalServerError, "forecast failed")
		return
	}

	if !outcome.OK() {
		respondJSON(w, http.StatusUnprocessableEntity, outcome)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

// GetKeyMetrics returns the week-over-week key metrics
// GET /api/analysis/metrics?end=2024-06-30
func (h *AnalysisHandler) GetKeyMetrics(w http.ResponseWriter, r *http.Request) {
	end, err := h.endDate(r)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	m, err := h.service.KeyMetrics(r.Context(), end)
	if errors.Is(err, features.ErrEmptyPanel) {
		respondError(w, http.StatusNotFound, "no sales data in range")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Key metrics failed")
		respondError(w, http.StatusInternalServerError, "key metrics failed")
		return
	}

	respondJSON(w, http.StatusOK, m)
}

// GetRun returns a persisted analysis run
// GET /api/analysis/runs/{id}
func (h *AnalysisHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.service.Run(r.Context(), id)
	if errors.Is(err, analysis.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to load run")
		respondError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":          run.ID,
		"start_date":  run.StartDate.Format(dateFmt),
		"end_date":    run.EndDate.Format(dateFmt),
		"status":      run.Status,
		"error":       run.Error,
		"duration_ms": run.Duration.Milliseconds(),
		"finished_at": run.FinishedAt,
		"report":      run.Report,
	})
}

// endDate reads ?end=, defaulting to yesterday
func (h *AnalysisHandler) endDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("end")
	if raw == "" {
		now := h.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1), nil
	}
	end, err := time.Parse(dateFmt, raw)
	if err != nil {
		return time.Time{}, &requestError{details: map[string]string{"end": "must be a date formatted as " + dateFmt}}
	}
	return end, nil
}

func (h *AnalysisHandler) badRequest(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		respondValidation(w, re.details)
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}
