package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// LeadUseCases groups the operations the lead routes delegate to.
type LeadUseCases struct {
	CreateLead           *usecase.CreateLeadUseCase
	GetLead              *usecase.GetLeadUseCase
	DocumentFirstContact *usecase.DocumentFirstContactUseCase
	LogActivity          *usecase.LogActivityUseCase
	ListActivities       *usecase.ListActivitiesUseCase
	UpdateEngagement     *usecase.UpdateEngagementUseCase
	ChangeStatus         *usecase.ChangeStatusUseCase
	DeleteLead           *usecase.DeleteLeadUseCase
	ListOverduePreClaim  *usecase.ListOverduePreClaimUseCase
}

type LeadHandler struct {
	UseCases    LeadUseCases
	Logger      *zap.Logger
	rateLimiter *RateLimiter
}

// NewLeadHandler builds the lead routes; ctx bounds the rate limiter's
// background sweep.
func NewLeadHandler(ctx context.Context, useCases LeadUseCases, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		UseCases:    useCases,
		Logger:      logger,
		rateLimiter: NewRateLimiter(ctx, 30, time.Minute), // 30 leads/min per IP
	}
}

func (h *LeadHandler) Routes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.With(h.rateLimiter.Middleware).Post("/", h.Create)
		r.Get("/pre-claim/overdue", h.ListOverduePreClaim)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/protection", h.GetProtection)
		r.Post("/{id}/first-contact", h.DocumentFirstContact)
		r.Get("/{id}/activities", h.ListActivities)
		r.Post("/{id}/activities", h.LogActivity)
		r.Patch("/{id}/engagement", h.UpdateEngagement)
		r.Post("/{id}/status", h.ChangeStatus)
	})
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, "invalid JSON body")
		return
	}

	view, err := h.UseCases.CreateLead.Execute(r.Context(), input)
	if err != nil {
		writeUsecaseError(w, h.Logger, "create_lead", err)
		return
	}
	setETag(w, view.Lead.Version)
	w.Header().Set("Location", "/leads/"+view.Lead.ID)
	writeJSON(w, http.StatusCreated, view)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.UseCases.GetLead.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, h.Logger, "get_lead", err)
		return
	}
	setETag(w, view.Lead.Version)
	writeJSON(w, http.StatusOK, view)
}

type ProtectionResponse struct {
	LeadID           string                 `json:"lead_id"`
	EffectiveStatus  entity.LeadStatus      `json:"effective_status"`
	Protection       entity.Protection      `json:"protection"`
	ProgressDeadline *time.Time             `json:"progress_deadline,omitempty"`
	ProtectionUntil  *time.Time             `json:"protection_until,omitempty"`
	PreClaim         *entity.PreClaimStatus `json:"pre_claim,omitempty"`
	EvaluatedAt      time.Time              `json:"evaluated_at"`
}

func (h *LeadHandler) GetProtection(w http.ResponseWriter, r *http.Request) {
	view, err := h.UseCases.GetLead.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, h.Logger, "get_protection", err)
		return
	}
	setETag(w, view.Lead.Version)
	writeJSON(w, http.StatusOK, ProtectionResponse{
		LeadID:           view.Lead.ID,
		EffectiveStatus:  view.EffectiveStatus,
		Protection:       view.Protection,
		ProgressDeadline: view.Lead.ProgressDeadline,
		ProtectionUntil:  view.Lead.ProtectionUntil,
		PreClaim:         view.PreClaim,
		EvaluatedAt:      view.EvaluatedAt,
	})
}

func (h *LeadHandler) DocumentFirstContact(w http.ResponseWriter, r *http.Request) {
	version, ok := requireVersion(w, r)
	if !ok {
		return
	}
	var input usecase.DocumentFirstContactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, "invalid JSON body")
		return
	}
	input.LeadID = chi.URLParam(r, "id")
	input.ExpectedVersion = version

	view, err := h.UseCases.DocumentFirstContact.Execute(r.Context(), input)
	if err != nil {
		writeUsecaseError(w, h.Logger, "document_first_contact", err)
		return
	}
	middleware.RecordFirstContactDocumented()
	setETag(w, view.Lead.Version)
	writeJSON(w, http.StatusOK, view)
}

func (h *LeadHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.UseCases.ListActivities.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, h.Logger, "list_activities", err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *LeadHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	version, ok := requireVersion(w, r)
	if !ok {
		return
	}
	var input usecase.LogActivityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, "invalid JSON body")
		return
	}
	input.LeadID = chi.URLParam(r, "id")
	input.ExpectedVersion = version

	out, err := h.UseCases.LogActivity.Execute(r.Context(), input)
	if err != nil {
		writeUsecaseError(w, h.Logger, "log_activity", err)
		return
	}
	middleware.RecordActivityLogged(out.Activity.CountsAsProgress())
	setETag(w, out.View.Lead.Version)
	writeJSON(w, http.StatusCreated, out)
}

func (h *LeadHandler) UpdateEngagement(w http.ResponseWriter, r *http.Request) {
	version, ok := requireVersion(w, r)
	if !ok {
		return
	}
	var input usecase.UpdateEngagementInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, "invalid JSON body")
		return
	}
	input.LeadID = chi.URLParam(r, "id")
	input.ExpectedVersion = version

	view, err := h.UseCases.UpdateEngagement.Execute(r.Context(), input)
	if err != nil {
		writeUsecaseError(w, h.Logger, "update_engagement", err)
		return
	}
	setETag(w, view.Lead.Version)
	writeJSON(w, http.StatusOK, view)
}

func (h *LeadHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	version, ok := requireVersion(w, r)
	if !ok {
		return
	}
	var input usecase.ChangeStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, "invalid JSON body")
		return
	}
	input.LeadID = chi.URLParam(r, "id")
	input.ExpectedVersion = version

	view, err := h.UseCases.ChangeStatus.Execute(r.Context(), input)
	if err != nil {
		writeUsecaseError(w, h.Logger, "change_status", err)
		return
	}
	setETag(w, view.Lead.Version)
	writeJSON(w, http.StatusOK, view)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	version, ok := requireVersion(w, r)
	if !ok {
		return
	}

	lead, err := h.UseCases.DeleteLead.Execute(r.Context(), usecase.DeleteLeadInput{
		LeadID:          chi.URLParam(r, "id"),
		ExpectedVersion: version,
	})
	if err != nil {
		writeUsecaseError(w, h.Logger, "delete_lead", err)
		return
	}
	setETag(w, lead.Version)
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) ListOverduePreClaim(w http.ResponseWriter, r *http.Request) {
	views, err := h.UseCases.ListOverduePreClaim.Execute(r.Context())
	if err != nil {
		writeUsecaseError(w, h.Logger, "list_overdue_pre_claim", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
