// Package api provides HTTP API handlers for tuning profiles.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/store"
)

// Applier applies a pipeline configuration to the running pipeline.
type Applier interface {
	Configure(cfg pipeline.Config) error
}

// ProfileHandler handles HTTP requests for profile resources.
type ProfileHandler struct {
	store   *store.Store
	applier Applier
	logger  *slog.Logger
}

// NewProfileHandler creates a ProfileHandler. applier may be nil, in which
// case activation only records the active profile.
func NewProfileHandler(s *store.Store, applier Applier) *ProfileHandler {
	return &ProfileHandler{store: s, applier: applier, logger: log.L()}
}

// ServeHTTP routes /api/profiles, /api/profiles/{id} and
// /api/profiles/{id}/activate.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/activate"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type profileRequest struct {
	Name     string           `json:"name"`
	Settings *pipeline.Config `json:"settings"`
}

type profileResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Settings  pipeline.Config `json:"settings"`
	Active    bool            `json:"active"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(p *store.Profile, active string) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Settings:  p.Settings,
		Active:    p.ID == active,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// activeID returns the active profile ID, or "" when none is set or the
// setting cannot be read.
func (h *ProfileHandler) activeID() string {
	id, err := h.store.Settings().Get(store.SettingActiveProfile)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("reading active profile", "error", err)
		}
		return ""
	}
	return id
}

// decode reads a profile request. Missing settings fall back to the
// defaults and present ones must validate.
func decode(r *http.Request, fallback pipeline.Config) (profileRequest, pipeline.Config, error) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fallback, errors.New("Invalid JSON")
	}
	cfg := fallback
	if req.Settings != nil {
		cfg = *req.Settings
	}
	if err := cfg.Validate(); err != nil {
		return req, cfg, err
	}
	return req, cfg, nil
}

// list handles GET /api/profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	active := h.activeID()
	response := listProfilesResponse{
		Profiles: make([]profileResponse, 0, len(profiles)),
	}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toResponse(p, active))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p, h.activeID()))
}

func (h *ProfileHandler) lookup(w http.ResponseWriter, id string) (*store.Profile, bool) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return nil, false
	}
	return p, true
}

// nameTaken reports whether another profile already uses name.
func (h *ProfileHandler) nameTaken(name, id string) bool {
	p, err := h.store.Profiles().GetByName(name)
	return err == nil && p.ID != id
}

// create handles POST /api/profiles.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := decode(r, pipeline.DefaultConfig())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if h.nameTaken(req.Name, "") {
		writeError(w, http.StatusConflict, "Profile name already exists")
		return
	}

	p := &store.Profile{Name: req.Name, Settings: cfg}
	if err := h.store.Profiles().Create(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(p, h.activeID()))
}

// update handles PUT /api/profiles/{id}. Updating the active profile
// applies it to the running pipeline.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}

	req, cfg, err := decode(r, p.Settings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != "" {
		if h.nameTaken(req.Name, id) {
			writeError(w, http.StatusConflict, "Profile name already exists")
			return
		}
		p.Name = req.Name
	}
	p.Settings = cfg

	if err := h.store.Profiles().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	active := h.activeID()
	if p.ID == active && h.applier != nil {
		if err := h.applier.Configure(p.Settings); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply profile")
			return
		}
	}

	writeJSON(w, http.StatusOK, toResponse(p, active))
}

// delete handles DELETE /api/profiles/{id}.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	if h.activeID() == id {
		h.store.Settings().Delete(store.SettingActiveProfile)
	}

	w.WriteHeader(http.StatusNoContent)
}

// activate handles POST /api/profiles/{id}/activate.
func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}

	if h.applier != nil {
		if err := h.applier.Configure(p.Settings); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.store.Settings().Set(store.SettingActiveProfile, p.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store active profile")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p, p.ID))
}
