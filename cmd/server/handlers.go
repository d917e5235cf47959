package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service  lyricsync.Service
	config   *ServerConfig
	log      lyricsync.Logger
	sessions *sessionRegistry
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string
	Backend        string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service lyricsync.Service, config *ServerConfig) *Server {
	return &Server{
		service:  service,
		config:   config,
		log:      logger.GetLogger().With("http"),
		sessions: newSessionRegistry(),
	}
}

// respondJSON writes a JSON response. The body is encoded before the status
// is sent so an encoding failure still reaches the client as a 500.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{
			Error:   http.StatusText(statusCode),
			Message: "Failed to encode response",
			Code:    statusCode,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondLookupError maps not-found sentinels to 404 and anything else to 500.
func (s *Server) respondLookupError(w http.ResponseWriter, what, id string, err error) {
	if errors.Is(err, lyricsync.ErrTranscriptNotFound) || errors.Is(err, lyricsync.ErrSessionNotFound) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", what, id))
		return
	}
	s.log.Errorf("Failed to load %s %s: %v", what, id, err)
	s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load %s", what))
}

// decodeJSON reads a JSON body into v and runs its Validate method.
func decodeJSON(r *http.Request, v interface{ Validate() error }) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 2*MaxTranscriptBytes)).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return v.Validate()
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "LyricSync API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":           "GET /health",
			"metrics":          "GET /api/health/metrics",
			"transcripts":      "GET /api/transcripts",
			"addTranscript":    "POST /api/transcripts",
			"getTranscript":    "GET /api/transcripts/{id}",
			"deleteTranscript": "DELETE /api/transcripts/{id}",
			"lines":            "GET /api/transcripts/{id}/lines",
			"resolve":          "GET /api/transcripts/{id}/resolve?t={ms}",
			"openSession":      "POST /api/sessions",
			"getSession":       "GET /api/sessions/{id}",
			"closeSession":     "DELETE /api/sessions/{id}",
			"setTime":          "POST /api/sessions/{id}/time",
			"reportHeights":    "POST /api/sessions/{id}/heights",
			"setViewport":      "POST /api/sessions/{id}/viewport",
			"userScroll":       "POST /api/sessions/{id}/scroll",
			"jumpToCurrent":    "POST /api/sessions/{id}/jump",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	transcripts, err := s.service.ListTranscripts(r.Context())
	if err != nil {
		s.log.Errorf("Failed to count transcripts: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:          "healthy",
		Backend:         s.config.Backend,
		TranscriptCount: len(transcripts),
		SessionCount:    s.sessions.len(),
	})
}

// handleListTranscripts handles GET /api/transcripts
func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	transcripts, err := s.service.ListTranscripts(r.Context())
	if err != nil {
		s.log.Errorf("Failed to list transcripts: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve transcripts")
		return
	}

	dtos := make([]TranscriptDTO, len(transcripts))
	for i := range transcripts {
		dtos[i] = toTranscriptDTO(&transcripts[i])
	}

	s.respondJSON(w, http.StatusOK, ListTranscriptsResponse{
		Transcripts: dtos,
		Count:       len(dtos),
	})
}

// handleAddTranscript handles POST /api/transcripts. The body is either JSON
// or a multipart form with an "lrc" file and optional title/artist fields.
func (s *Server) handleAddTranscript(w http.ResponseWriter, r *http.Request) {
	req, err := s.readAddRequest(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.service.AddTranscript(r.Context(), req.Title, req.Artist, req.LRC)
	if errors.Is(err, lyricsync.ErrMissingTitle) {
		s.respondError(w, http.StatusBadRequest, "title is required when the lrc has no [ti:] tag")
		return
	}
	if err != nil {
		s.log.Errorf("Failed to add transcript: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to add transcript")
		return
	}

	t, err := s.service.GetTranscript(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, "transcript", id, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, AddTranscriptResponse{
		Message:       "Transcript added successfully",
		TranscriptDTO: toTranscriptDTO(t),
	})
}

func (s *Server) readAddRequest(r *http.Request) (*AddTranscriptRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req AddTranscriptRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := r.ParseMultipartForm(MaxTranscriptBytes); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		return nil, errors.New("failed to parse form data")
	}
	file, _, err := r.FormFile("lrc")
	if err != nil {
		return nil, errors.New("lrc file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxTranscriptBytes+1))
	if err != nil {
		return nil, errors.New("failed to read uploaded file")
	}

	req := &AddTranscriptRequest{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
		LRC:    string(data),
	}
	return req, req.Validate()
}

// handleGetTranscript handles GET /api/transcripts/{id}
func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, err := s.service.GetTranscript(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, "transcript", id, err)
		return
	}

	s.respondJSON(w, http.StatusOK, TranscriptDetailDTO{
		TranscriptDTO: toTranscriptDTO(t),
		Source:        t.Source,
	})
}

// handleDeleteTranscript handles DELETE /api/transcripts/{id}
func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.service.DeleteTranscript(r.Context(), id); err != nil {
		s.respondLookupError(w, "transcript", id, err)
		return
	}

	s.respondJSON(w, http.StatusOK, DeleteResponse{
		Message: "Transcript deleted successfully",
		ID:      id,
	})
}

// handleLines handles GET /api/transcripts/{id}/lines
func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, err := s.service.GetTranscript(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, "transcript", id, err)
		return
	}

	tl := t.Timeline()
	s.respondJSON(w, http.StatusOK, LinesResponse{
		TranscriptID: t.ID,
		Lines:        tl.Lines(),
		Count:        tl.Len(),
		OffsetMs:     tl.OffsetMs(),
	})
}

// handleResolve handles GET /api/transcripts/{id}/resolve?t=ms
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ms, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil || math.IsNaN(ms) {
		s.respondError(w, http.StatusBadRequest, "query parameter t must be a time in milliseconds")
		return
	}

	t, err := s.service.GetTranscript(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, "transcript", id, err)
		return
	}

	tl := t.Timeline()
	idx := tl.Resolve(ms)
	resp := ResolveResponse{Index: idx}
	// JSON has no infinities; ±Inf still resolves but the echo is omitted.
	if !math.IsInf(ms, 0) {
		resp.TimeMs = &ms
	}
	if line, ok := tl.Line(idx); ok {
		resp.Line = &line
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleOpenSession handles POST /api/sessions
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.service.OpenSession(r.Context(), req.TranscriptID)
	if err != nil {
		s.respondLookupError(w, "transcript", req.TranscriptID, err)
		return
	}

	entry := s.sessions.add(sess)
	s.log.Infof("Opened session %s on transcript %s", sess.ID(), req.TranscriptID)
	s.respondJSON(w, http.StatusCreated, entry.apply(nil))
}

// sessionOp decodes a request into the call to make on a session.
type sessionOp func(r *http.Request) (func(*lyricsync.Session), error)

// withSession looks up {id}, applies op and responds with the resulting
// state. A nil op only reports the state.
func (s *Server) withSession(op sessionOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		entry, err := s.sessions.get(id)
		if err != nil {
			s.respondLookupError(w, "session", id, err)
			return
		}

		var fn func(*lyricsync.Session)
		if op != nil {
			if fn, err = op(r); err != nil {
				s.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		s.respondJSON(w, http.StatusOK, entry.apply(fn))
	}
}

// handleCloseSession handles DELETE /api/sessions/{id}
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.sessions.remove(id); err != nil {
		s.respondLookupError(w, "session", id, err)
		return
	}

	s.log.Infof("Closed session %s", id)
	s.respondJSON(w, http.StatusOK, DeleteResponse{
		Message: "Session closed",
		ID:      id,
	})
}

func setTime(r *http.Request) (func(*lyricsync.Session), error) {
	var req SetTimeRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	return func(sess *lyricsync.Session) { sess.SetTime(*req.TimeMs) }, nil
}

func reportHeights(r *http.Request) (func(*lyricsync.Session), error) {
	var req HeightsRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	return func(sess *lyricsync.Session) {
		for _, h := range req.Heights {
			sess.ReportHeight(h.Index, h.Height)
		}
	}, nil
}

func setViewport(r *http.Request) (func(*lyricsync.Session), error) {
	var req ViewportRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	return func(sess *lyricsync.Session) { sess.SetViewport(req.Height) }, nil
}

func userScroll(*http.Request) (func(*lyricsync.Session), error) {
	return (*lyricsync.Session).UserScroll, nil
}

func jumpToCurrent(*http.Request) (func(*lyricsync.Session), error) {
	return (*lyricsync.Session).JumpToCurrent, nil
}
