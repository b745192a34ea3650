package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nuitsjp/teams-board/internal/domain/board"
	"github.com/nuitsjp/teams-board/internal/domain/dashboard"
	"github.com/nuitsjp/teams-board/internal/domain/report"
)

// maxUploadBytes bounds an attendance export upload.
const maxUploadBytes = 8 << 20

// Dashboard is the engine surface the HTTP layer exposes.
type Dashboard interface {
	Index(ctx context.Context) (*board.Index, error)
	Session(ctx context.Context, ref string) (*board.SessionRecord, error)
	Import(ctx context.Context, data []byte) (*dashboard.ImportResult, error)
	RenameGroup(ctx context.Context, groupID, name string) error
	ConsolidateGroups(ctx context.Context, targetID string, selected []string) error
	RemoveSession(ctx context.Context, groupID, ref string) error
	EditSession(ctx context.Context, ref string, opts board.RevisionOptions) (string, error)
	AddMember(ctx context.Context, name string) (string, error)
	AddOrganizer(ctx context.Context, name string) (string, error)
	RemoveOrganizer(ctx context.Context, organizerID string) error
	SetGroupOrganizer(ctx context.Context, groupID string, organizerID *string) error
}

// Server wires HTTP handlers.
type Server struct {
	svc Dashboard
}

// NewServer creates the HTTP router with middleware.
func NewServer(svc Dashboard, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{svc: svc}

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Get("/index", srv.handleIndex)
		r.Post("/imports", srv.handleImport)
		r.Get("/sessions/{sessionID}/{revision}", srv.handleSession)
		r.Post("/sessions/{sessionID}/{revision}/revisions", srv.handleEditSession)
		r.Patch("/groups/{groupID}", srv.handleUpdateGroup)
		r.Post("/groups/consolidate", srv.handleConsolidate)
		r.Delete("/groups/{groupID}/sessions/{sessionID}/{revision}", srv.handleRemoveSession)
		r.Post("/members", srv.handleAddMember)
		r.Post("/organizers", srv.handleAddOrganizer)
		r.Delete("/organizers/{organizerID}", srv.handleRemoveOrganizer)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	idx, err := s.svc.Index(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromURL(w, r)
	if !ok {
		return
	}
	rec, err := s.svc.Session(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "reading upload", http.StatusBadRequest)
		return
	}
	result, err := s.svc.Import(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	body := map[string]any{
		"ref":      result.Ref,
		"warnings": result.Warnings,
		"conflict": result.Conflict,
	}
	status := http.StatusCreated
	if result.Conflict {
		status = http.StatusConflict
		body["latestVersion"] = result.LatestVersion
	}
	writeJSON(w, status, body)
}

func (s *Server) handleEditSession(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromURL(w, r)
	if !ok {
		return
	}
	var body struct {
		Title       *string  `json:"title"`
		Instructors []string `json:"instructors"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	newRef, err := s.svc.EditSession(r.Context(), ref, board.RevisionOptions{
		Title:       body.Title,
		Instructors: body.Instructors,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"ref": newRef})
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	var body struct {
		Name        *string `json:"name"`
		OrganizerID *string `json:"organizerId"`
		// ClearOrganizer distinguishes "clear" from "leave alone", which a
		// nullable JSON field alone cannot express.
		ClearOrganizer bool `json:"clearOrganizer"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name != nil {
		if err := s.svc.RenameGroup(r.Context(), groupID, *body.Name); err != nil {
			writeError(w, err)
			return
		}
	}
	if body.OrganizerID != nil || body.ClearOrganizer {
		if err := s.svc.SetGroupOrganizer(r.Context(), groupID, body.OrganizerID); err != nil {
			writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TargetID string   `json:"targetId"`
		Selected []string `json:"selectedIds"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.svc.ConsolidateGroups(r.Context(), body.TargetID, body.Selected); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	ref, ok := refFromURL(w, r)
	if !ok {
		return
	}
	if err := s.svc.RemoveSession(r.Context(), groupID, ref); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	s.handleAddNamed(w, r, s.svc.AddMember)
}

func (s *Server) handleAddOrganizer(w http.ResponseWriter, r *http.Request) {
	s.handleAddNamed(w, r, s.svc.AddOrganizer)
}

func (s *Server) handleAddNamed(w http.ResponseWriter, r *http.Request, add func(context.Context, string) (string, error)) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	id, err := add(r.Context(), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleRemoveOrganizer(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveOrganizer(r.Context(), chi.URLParam(r, "organizerID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func refFromURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	revision, err := strconv.Atoi(chi.URLParam(r, "revision"))
	if err != nil || revision < 0 {
		http.Error(w, "invalid revision", http.StatusBadRequest)
		return "", false
	}
	return board.FormatRef(sessionID, revision), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses: bad input to 400,
// missing entities to 404, abandoned concurrent edits to 409.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, board.ErrGroupNotFound),
		errors.Is(err, board.ErrMemberNotFound),
		errors.Is(err, board.ErrOrganizerNotFound),
		errors.Is(err, dashboard.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, board.ErrInvalidName),
		errors.Is(err, board.ErrInvalidRef),
		errors.Is(err, board.ErrInvalidInput),
		errors.Is(err, board.ErrNotEnoughGroups),
		errors.Is(err, board.ErrTargetNotSelected),
		errors.Is(err, board.ErrSessionNotInGroup),
		errors.Is(err, report.ErrUnrecognizedFormat),
		errors.Is(err, report.ErrNoParticipants):
		status = http.StatusBadRequest
	case errors.Is(err, dashboard.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, dashboard.ErrWriteFailed):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
