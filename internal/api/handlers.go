// Package api exposes HTTP handlers for the devpulse service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"example.com/devpulse/internal/domain"
	"example.com/devpulse/internal/relay"
)

// Handler coordinates HTTP requests with the domain service and the relay.
type Handler struct {
	service   *domain.Service
	forwarder *relay.Forwarder
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, forwarder *relay.Forwarder) *Handler {
	return &Handler{service: service, forwarder: forwarder}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/unity-status", h.unityStatus)
	mux.HandleFunc("/api/latest-commit", h.latestCommit)
	mux.HandleFunc("/api/github-webhook", h.githubWebhook)
	mux.HandleFunc("/api/trigger-notification", h.triggerNotification)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) unityStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getStatus(w, r)
	case http.MethodPost:
		h.postStatus(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Presence(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: record})
}

func (h *Handler) postStatus(w http.ResponseWriter, r *http.Request) {
	var req PresenceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	stored, err := h.service.UpdatePresence(r.Context(), req.toUpdate())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPresenceState) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, StoredStatusResponse{Stored: stored})
}

func (h *Handler) latestCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	commit, err := h.service.LatestCommit(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CommitResponse{Commit: commit})
}

func (h *Handler) githubWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var event domain.PushEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if _, err := h.service.RecordPush(r.Context(), event); err != nil {
		if errors.Is(err, domain.ErrMissingHeadCommit) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{Stored: true})
}

func (h *Handler) triggerNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result := h.forwarder.Forward(r.Context(), relay.Notification{
		Channel:  req.Channel,
		Title:    req.Title,
		Message:  req.Message,
		Metadata: req.Metadata,
	})
	writeJSON(w, http.StatusOK, result)
}

// PresenceUpdateRequest is the payload for POST /api/unity-status. Omitted
// fields inherit the stored record's values.
type PresenceUpdateRequest struct {
	State             string   `json:"state"`
	CurrentTask       *string  `json:"currentTask"`
	ActivityType      *string  `json:"activityType"`
	SceneName         *string  `json:"sceneName"`
	ToolVersion       *string  `json:"toolVersion"`
	IsInteractiveMode *bool    `json:"isInteractiveMode"`
	TotalTodayHours   *float64 `json:"totalTodayHours"`
	TotalWeekHours    *float64 `json:"totalWeekHours"`
	ProductiveStreak  *int     `json:"productiveStreak"`
	IsHeartbeat       bool     `json:"isHeartbeat"`
}

// Validate ensures request correctness.
func (r PresenceUpdateRequest) Validate() error {
	if strings.TrimSpace(r.State) == "" {
		return errors.New("state is required")
	}
	if _, err := domain.ParsePresenceState(r.State); err != nil {
		return err
	}
	return nil
}

func (r PresenceUpdateRequest) toUpdate() domain.PresenceUpdate {
	return domain.PresenceUpdate{
		State:             r.State,
		CurrentTask:       r.CurrentTask,
		ActivityType:      r.ActivityType,
		SceneName:         r.SceneName,
		ToolVersion:       r.ToolVersion,
		IsInteractiveMode: r.IsInteractiveMode,
		TotalTodayHours:   r.TotalTodayHours,
		TotalWeekHours:    r.TotalWeekHours,
		ProductiveStreak:  r.ProductiveStreak,
		IsHeartbeat:       r.IsHeartbeat,
	}
}

// NotificationRequest is the payload for POST /api/trigger-notification.
type NotificationRequest struct {
	Channel  string         `json:"channel"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata"`
}

// Validate ensures request correctness.
func (r NotificationRequest) Validate() error {
	if strings.TrimSpace(r.Channel) == "" {
		return errors.New("channel is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

// StatusResponse wraps the presence record for GET /api/unity-status.
type StatusResponse struct {
	Status domain.PresenceRecord `json:"status"`
}

// StoredStatusResponse wraps the stored record for POST /api/unity-status.
type StoredStatusResponse struct {
	Stored domain.PresenceRecord `json:"stored"`
}

// CommitResponse wraps the cached commit; Commit is null when none is stored.
type CommitResponse struct {
	Commit *domain.CommitRecord `json:"commit"`
}

// WebhookResponse acknowledges a stored push event.
type WebhookResponse struct {
	Stored bool `json:"stored"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
