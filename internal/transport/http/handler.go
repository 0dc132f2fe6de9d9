package http

import (
	"crypto/hmac"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// DefaultMaxUploadBytes caps in-memory multipart parsing; larger uploads
// spill to temp files which are removed when the request finishes.
const DefaultMaxUploadBytes = 4 << 20

// Handler exposes the REST API. Admin-gated routes require the configured
// key in the X-Admin-Key header; an empty configured key disables the gate
// for local development.
type Handler struct {
	scoreboard *app.ScoreboardService
	content    *app.ContentService
	admin      *app.AdminService
	validate   *validator.Validate
	adminKey   string
}

func NewHandler(scoreboard *app.ScoreboardService, content *app.ContentService, admin *app.AdminService, adminKey string) *Handler {
	return &Handler{
		scoreboard: scoreboard,
		content:    content,
		admin:      admin,
		validate:   validator.New(),
		adminKey:   adminKey,
	}
}

// Register wires all REST routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/participants", h.register)
	mux.HandleFunc("GET /api/participants/{id}/score", h.getScore)
	mux.HandleFunc("PUT /api/participants/{id}/score", h.adminOnly(h.submitScore))

	mux.HandleFunc("GET /api/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/leaderboard/groups", h.groupedLeaderboard)

	mux.HandleFunc("GET /api/settings", h.getSettings)
	mux.HandleFunc("PUT /api/settings/current-day", h.adminOnly(h.setCurrentDay))
	mux.HandleFunc("PUT /api/settings/group-colors", h.adminOnly(h.setGroupColors))
	mux.HandleFunc("PUT /api/groups/{day}", h.adminOnly(h.setGroups))

	mux.HandleFunc("POST /api/content/{day}/{game}", h.adminOnly(h.ingest))
	mux.HandleFunc("GET /api/content/{day}/{game}", h.currentContent)
}

type registerRequest struct {
	ExternalID  string `json:"externalId" validate:"required,max=64"`
	DisplayName string `json:"displayName" validate:"required,max=100"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.scoreboard.Register(r.Context(), req.ExternalID, req.DisplayName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"externalId": req.ExternalID})
}

func (h *Handler) getScore(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.scoreboard.GetScore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"externalId": r.PathValue("id"), "score": matrix})
}

type submitScoreRequest struct {
	Game  string `json:"game" validate:"required"`
	Day   string `json:"day" validate:"required"`
	Score int    `json:"score" validate:"min=0"`
}

func (h *Handler) submitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.scoreboard.SubmitScore(r.Context(), r.PathValue("id"), req.Game, req.Day, req.Score); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		// Non-numeric limits fall back to the default rather than erroring.
		limit, _ = strconv.Atoi(raw)
	}
	lb, err := h.scoreboard.Leaderboard(r.Context(), r.URL.Query().Get("scope"), r.URL.Query().Get("day"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) groupedLeaderboard(w http.ResponseWriter, r *http.Request) {
	groups, err := h.scoreboard.GroupedLeaderboard(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.admin.GetSettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type currentDayRequest struct {
	CurrentDay string `json:"currentDay" validate:"required"`
}

func (h *Handler) setCurrentDay(w http.ResponseWriter, r *http.Request) {
	var req currentDayRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.admin.SetCurrentDay(r.Context(), req.CurrentDay); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type groupColorsRequest struct {
	Day    string   `json:"day" validate:"required"`
	Colors []string `json:"colors" validate:"required"`
}

func (h *Handler) setGroupColors(w http.ResponseWriter, r *http.Request) {
	var req groupColorsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.admin.SetGroupColors(r.Context(), req.Day, req.Colors); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setGroupsRequest struct {
	Groups []domain.Group `json:"groups" validate:"required"`
}

func (h *Handler) setGroups(w http.ResponseWriter, r *http.Request) {
	var req setGroupsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.admin.SetGroups(r.Context(), r.PathValue("day"), req.Groups); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(DefaultMaxUploadBytes); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	// Spilled multipart temp files are removed on success and failure alike.
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	defer file.Close()

	version, err := h.content.Ingest(r.Context(), r.PathValue("day"), r.PathValue("game"), r.FormValue("group"), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"version": version})
}

func (h *Handler) currentContent(w http.ResponseWriter, r *http.Request) {
	cv, err := h.content.Current(r.Context(), r.PathValue("day"), r.PathValue("game"), r.URL.Query().Get("group"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cv)
}

// adminOnly rejects requests whose X-Admin-Key header does not match the
// configured key, using a constant-time compare.
func (h *Handler) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.adminKey != "" && !hmac.Equal([]byte(r.Header.Get("X-Admin-Key")), []byte(h.adminKey)) {
			writeError(w, domain.ErrUnauthorized)
			return
		}
		next(w, r)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_argument", Message: "malformed JSON body"})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_argument", Message: err.Error()})
		return false
	}
	return true
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// writeError maps domain errors to stable machine-readable kinds. Storage
// internals are logged, never leaked to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_argument", Message: err.Error()})
	case errors.Is(err, domain.ErrParse):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "parse_error", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: "conflict", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "admin key required"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
	}
}
