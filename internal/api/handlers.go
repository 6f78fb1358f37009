package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/carelink/benefitlimits/internal/domain"
	"github.com/carelink/benefitlimits/internal/ingestion"
	"github.com/carelink/benefitlimits/internal/repository"
	"github.com/carelink/benefitlimits/internal/utilization"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	planRepo    *repository.PlanRepo
	findingRepo *repository.FindingRepo
	importSvc   *ingestion.Service
	utilSvc     *utilization.Service
	log         zerolog.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto status codes: unknown rows are
// 404, rejected limit configurations and values are 422.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidConfiguration), errors.Is(err, domain.ErrInvalidValue):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("request failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// --- Healthz ---

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- ImportFile ---

func (h *Handlers) ImportFile(w http.ResponseWriter, r *http.Request) {
	// Accept multipart form.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	kind := r.FormValue("kind")
	format := r.FormValue("format")
	if kind == "" || format == "" {
		h.writeError(w, http.StatusBadRequest, "kind and format are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.importSvc.Import(r.Context(), data, kind, format, r.FormValue("plan_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// --- Plans ---

func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planRepo.ListPlans(r.Context(), r.URL.Query().Get("member_id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if plans == nil {
		plans = []domain.Plan{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"plans": plans,
		"total": len(plans),
	})
}

func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plan, err := h.planRepo.GetPlan(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	forest, err := h.planRepo.LoadForest(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.PlanDocument{Plan: *plan, Limits: domain.ForestSpec(forest)})
}

func (h *Handlers) GetLimits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	collapsed := splitList(r.URL.Query().Get("collapsed"))

	view, err := h.utilSvc.PlanView(r.Context(), id, collapsed)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.utilSvc.PlanView(r.Context(), chi.URLParam(r, "id"), nil)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"plan":       view.Plan,
		"summary":    view.Summary,
		"counts":     view.Counts,
		"thresholds": h.utilSvc.Thresholds(),
	})
}

// --- Claims ---

func (h *Handlers) GetClaimHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	history, err := h.utilSvc.ClaimHistory(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	uncovered := 0
	for _, c := range history {
		if !c.Applicable {
			uncovered++
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"plan_id":   id,
		"claims":    history,
		"total":     len(history),
		"uncovered": uncovered,
	})
}

type impactRequest struct {
	ClaimNumber string       `json:"claim_number"`
	ServiceType string       `json:"service_type"`
	Amount      domain.Cents `json:"amount"`
	Date        string       `json:"date"`
}

func (h *Handlers) ResolveImpact(w http.ResponseWriter, r *http.Request) {
	var req impactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	claim := domain.Claim{
		ClaimNumber: req.ClaimNumber,
		ServiceType: domain.ServiceType(req.ServiceType),
		Amount:      req.Amount,
	}
	if t := parseTime(req.Date); t != nil {
		claim.Date = *t
	}

	impact, err := h.utilSvc.ResolveClaim(r.Context(), chi.URLParam(r, "id"), claim)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, impact)
}

// --- Review and findings ---

func (h *Handlers) RunReview(w http.ResponseWriter, r *http.Request) {
	result, err := h.utilSvc.RunReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) ListFindings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.FindingFilter{
		PlanID:   q.Get("plan_id"),
		Type:     q.Get("type"),
		Severity: q.Get("severity"),
		From:     parseTime(q.Get("from")),
		To:       parseTime(q.Get("to")),
		Page:     parseIntDefault(q.Get("page"), 1),
		Limit:    parseIntDefault(q.Get("limit"), 50),
	}

	findings, total, err := h.findingRepo.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if findings == nil {
		findings = []domain.Finding{}
	}

	// Total amount for the result set.
	var totalAmount domain.Cents
	for _, f := range findings {
		totalAmount += f.Amount
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"findings":     findings,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
		"total_amount": totalAmount,
	})
}

func (h *Handlers) GetFindingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.findingRepo.GetSummary(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}
