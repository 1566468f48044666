// Package httptransport is the thin HTTP layer over the workflow engine. It
// decodes, delegates, and encodes; business rules live in internal/workflow.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"certitrack/internal/domain"
	"certitrack/internal/platform/middleware"
	"certitrack/internal/workflow"
	dErrors "certitrack/pkg/domain-errors"
	"certitrack/pkg/platform/httputil"
)

type Handler struct {
	engine *workflow.Service
	logger *slog.Logger
}

func NewHandler(engine *workflow.Service, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actorID, role, err := h.actor(r, req.ActorID, req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.engine.Create(r.Context(), req.ApplicantName, req.ContactEmail,
		domain.Priority(req.Priority), actorID, role)
	if err != nil {
		h.logError(r, "create request", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.engine.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.TargetState == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "target_state is required"))
		return
	}

	actorID, role, err := h.actor(r, req.ActorID, req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.engine.Transition(r.Context(), id, domain.State(req.TargetState),
		actorID, role, req.Note, req.Metadata)
	if err != nil {
		h.logError(r, "transition", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleCanTransition(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	target := r.URL.Query().Get("target_state")
	if target == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "target_state is required"))
		return
	}
	_, role, err := h.actor(r, "", r.URL.Query().Get("role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision, err := h.engine.CanTransition(r.Context(), id, domain.State(target), role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.engine.History(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleAttach(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req attachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var refs workflow.LinkedRefs
	if refs.PaymentID, err = optionalUUID(req.PaymentID, "payment_id"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if refs.PhysicalDocumentID, err = optionalUUID(req.PhysicalDocumentID, "physical_document_id"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if refs.CertificateID, err = optionalUUID(req.CertificateID, "certificate_id"); err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.engine.Attach(r.Context(), id, refs)
	if err != nil {
		h.logError(r, "attach references", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// actor resolves the acting identity. Claims placed in the context by the
// auth middleware win over anything in the request body.
func (h *Handler) actor(r *http.Request, bodyActorID, bodyRole string) (*uuid.UUID, domain.Role, error) {
	actorStr := middleware.GetActorID(r.Context())
	roleStr := middleware.GetActorRole(r.Context())
	if actorStr == "" {
		actorStr = bodyActorID
	}
	if roleStr == "" {
		roleStr = bodyRole
	}

	role := domain.Role(roleStr)
	if roleStr == "" {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "role is required")
	}

	if actorStr == "" {
		// Only unattended transitions act without an identity.
		if role != domain.RoleSystem {
			return nil, "", dErrors.New(dErrors.CodeBadRequest, "actor_id is required for non-system roles")
		}
		return nil, role, nil
	}
	actorID, err := uuid.Parse(actorStr)
	if err != nil {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "actor_id must be a UUID")
	}
	return &actorID, role, nil
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.CodeOf(err) == dErrors.CodeStorageUnavailable {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
}

func requestID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "request id must be a UUID")
	}
	return id, nil
}

func optionalUUID(s, field string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "%s must be a UUID", field)
	}
	return &id, nil
}
