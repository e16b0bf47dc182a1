// Package api exposes the navigation state and operations as JSON over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/navigation"
	"github.com/azure/hn-reader/internal/sources"
	"github.com/azure/hn-reader/internal/translation"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server serves the reader API
type Server struct {
	nav     *navigation.Navigator
	gateway *translation.Gateway
	started time.Time

	mu      sync.RWMutex
	metrics Metrics
}

// Metrics holds request counters for the API
type Metrics struct {
	Requests      int64             `json:"requests"`
	Errors        int64             `json:"errors"`
	LastOperation string            `json:"last_operation,omitempty"`
	LastRun       time.Time         `json:"last_run"`
	Uptime        string            `json:"uptime"`
	Generation    translation.Stats `json:"generation"`
}

// response wraps an operation result with the state it left behind
type response struct {
	Result interface{}         `json:"result,omitempty"`
	State  navigation.Snapshot `json:"state"`
}

// NewServer creates a new API server
func NewServer(nav *navigation.Navigator, gateway *translation.Gateway) *Server {
	return &Server{nav: nav, gateway: gateway, started: time.Now()}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.HandleFunc("/metrics", s.getMetrics).Methods(http.MethodGet)
	router.HandleFunc("/state", s.state).Methods(http.MethodGet)
	router.HandleFunc("/languages", s.languages).Methods(http.MethodGet)

	router.HandleFunc("/feeds/{feed}", s.switchFeed).Methods(http.MethodPost)
	router.HandleFunc("/feed/more", s.loadMore).Methods(http.MethodPost)
	router.HandleFunc("/feed/retry", s.retry).Methods(http.MethodPost)

	router.HandleFunc("/stories/{id:[0-9]+}/select", s.selectStory).Methods(http.MethodPost)
	router.HandleFunc("/selection", s.closeSelection).Methods(http.MethodDelete)
	router.HandleFunc("/users/{handle}/select", s.selectUser).Methods(http.MethodPost)
	router.HandleFunc("/users/{handle}/search", s.searchUser).Methods(http.MethodPost)
	router.HandleFunc("/search", s.clearSearch).Methods(http.MethodDelete)

	router.HandleFunc("/profile/tab/{tab}", s.switchTab).Methods(http.MethodPost)
	router.HandleFunc("/profile/items/{id:[0-9]+}/open", s.openActivity).Methods(http.MethodPost)

	router.HandleFunc("/favorites/{id:[0-9]+}/toggle", s.toggleFavorite).Methods(http.MethodPost)
	router.HandleFunc("/language", s.setLanguage).Methods(http.MethodPut)
	router.HandleFunc("/layout/{mode}", s.setLayout).Methods(http.MethodPut)

	router.HandleFunc("/comments/load", s.loadComments).Methods(http.MethodPost)
	router.HandleFunc("/comments/{id:[0-9]+}/collapse", s.toggleComment).Methods(http.MethodPost)
	router.HandleFunc("/comments/{id:[0-9]+}/translate", s.translateComment).Methods(http.MethodPost)

	router.HandleFunc("/detail/summary", s.summarize).Methods(http.MethodPost)
	router.HandleFunc("/detail/summary", s.hideSummary).Methods(http.MethodDelete)
	router.HandleFunc("/detail/title/translate", s.translateTitle).Methods(http.MethodPost)
	router.HandleFunc("/detail/body/translate", s.translateBody).Methods(http.MethodPost)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) getMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Metrics())
}

// Metrics returns a copy of the counters
func (s *Server) Metrics() Metrics {
	s.mu.RLock()
	m := s.metrics
	s.mu.RUnlock()

	m.Uptime = time.Since(s.started).Round(time.Second).String()
	m.Generation = s.gateway.Stats()
	return m
}

func (s *Server) record(operation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Requests++
	s.metrics.LastOperation = operation
	s.metrics.LastRun = time.Now()
	if err != nil {
		s.metrics.Errors++
	}
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.nav.Snapshot())
}

func (s *Server) languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Languages)
}

// reply records the operation and writes either the error or the result with state
func (s *Server) reply(w http.ResponseWriter, operation string, result interface{}, err error) {
	s.record(operation, err)
	if err != nil {
		status := statusFor(err)
		logrus.WithError(err).WithFields(logrus.Fields{"operation": operation, "status": status}).Warn("API operation failed")
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response{Result: result, State: s.nav.Snapshot()})
}

func (s *Server) switchFeed(w http.ResponseWriter, r *http.Request) {
	f := models.FeedType(mux.Vars(r)["feed"])
	if !f.Valid() || f == models.FeedUser {
		s.reply(w, "switch_feed", nil, badRequest("unsupported feed %q", f))
		return
	}
	s.reply(w, "switch_feed", nil, s.nav.SwitchFeed(r.Context(), f))
}

func (s *Server) loadMore(w http.ResponseWriter, r *http.Request) {
	added, err := s.nav.LoadMore(r.Context())
	s.reply(w, "load_more", map[string]int{"added": len(added)}, err)
}

func (s *Server) retry(w http.ResponseWriter, r *http.Request) {
	s.reply(w, "retry", nil, s.nav.Retry(r.Context()))
}

func (s *Server) selectStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.reply(w, "select_story", nil, err)
		return
	}
	outcome, err := s.nav.SelectStoryByID(r.Context(), id)
	if err != nil {
		err = notFound(err)
	}
	s.reply(w, "select_story", outcome, err)
}

func (s *Server) closeSelection(w http.ResponseWriter, r *http.Request) {
	s.nav.CloseSelection()
	s.reply(w, "close_selection", nil, nil)
}

func (s *Server) selectUser(w http.ResponseWriter, r *http.Request) {
	s.reply(w, "select_user", nil, s.nav.SelectUser(r.Context(), mux.Vars(r)["handle"]))
}

func (s *Server) searchUser(w http.ResponseWriter, r *http.Request) {
	s.reply(w, "search_user", nil, s.nav.SearchUser(r.Context(), mux.Vars(r)["handle"]))
}

func (s *Server) clearSearch(w http.ResponseWriter, r *http.Request) {
	s.reply(w, "clear_search", nil, s.nav.ClearSearch(r.Context()))
}

func (s *Server) switchTab(w http.ResponseWriter, r *http.Request) {
	tab := navigation.Tab(mux.Vars(r)["tab"])
	if tab != navigation.TabStories && tab != navigation.TabComments {
		s.reply(w, "switch_tab", nil, badRequest("unsupported tab %q", tab))
		return
	}
	s.reply(w, "switch_tab", nil, s.nav.SwitchTab(r.Context(), tab))
}

func (s *Server) openActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.reply(w, "open_activity", nil, err)
		return
	}
	outcome, err := s.nav.OpenActivity(r.Context(), id)
	if err != nil {
		err = notFound(err)
	}
	s.reply(w, "open_activity", outcome, err)
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.reply(w, "toggle_favorite", nil, err)
		return
	}
	saved, err := s.nav.ToggleFavorite(id)
	s.reply(w, "toggle_favorite", map[string]interface{}{"id": id, "saved": saved}, err)
}

type languageRequest struct {
	Language string `json:"language"`
}

func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reply(w, "set_language", nil, badRequest("invalid request body: %v", err))
		return
	}
	if !models.KnownLanguage(req.Language) {
		s.reply(w, "set_language", nil, badRequest("unsupported language %q", req.Language))
		return
	}
	s.reply(w, "set_language", nil, s.nav.SetLanguage(req.Language))
}

func (s *Server) setLayout(w http.ResponseWriter, r *http.Request) {
	layout := navigation.Layout(mux.Vars(r)["mode"])
	if !layout.Valid() {
		s.reply(w, "set_layout", nil, badRequest("unsupported layout %q", layout))
		return
	}
	s.reply(w, "set_layout", nil, s.nav.SetLayout(layout))
}

func (s *Server) loadComments(w http.ResponseWriter, r *http.Request) {
	fetched, err := s.nav.LoadComments(r.Context())
	s.reply(w, "load_comments", map[string]int{"fetched": fetched}, err)
}

func (s *Server) toggleComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.reply(w, "toggle_comment", nil, err)
		return
	}
	collapsed, err := s.nav.ToggleComment(id)
	if err != nil && !errors.Is(err, navigation.ErrNoSelection) {
		err = notFound(err)
	}
	s.reply(w, "toggle_comment", map[string]bool{"collapsed": collapsed}, err)
}

func (s *Server) translateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.reply(w, "translate_comment", nil, err)
		return
	}
	field, err := s.nav.TranslateComment(r.Context(), id)
	if err != nil && !errors.Is(err, navigation.ErrNoSelection) {
		err = notFound(err)
	}
	s.reply(w, "translate_comment", field, err)
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	summary, err := s.nav.Summarize(r.Context())
	s.reply(w, "summarize", map[string]string{"summary": summary}, err)
}

func (s *Server) hideSummary(w http.ResponseWriter, r *http.Request) {
	s.reply(w, "hide_summary", nil, s.nav.HideSummary())
}

func (s *Server) translateTitle(w http.ResponseWriter, r *http.Request) {
	field, err := s.nav.ToggleTitleTranslation(r.Context())
	s.reply(w, "translate_title", field, err)
}

func (s *Server) translateBody(w http.ResponseWriter, r *http.Request) {
	field, err := s.nav.ToggleBodyTranslation(r.Context())
	s.reply(w, "translate_body", field, err)
}

// httpError carries the status an error maps to
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func badRequest(format string, args ...interface{}) error {
	return &httpError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

func notFound(err error) error {
	return &httpError{status: http.StatusNotFound, err: err}
}

func statusFor(err error) int {
	var httpErr *httpError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.status
	case errors.Is(err, navigation.ErrNoSelection):
		return http.StatusConflict
	case sources.IsTransportError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, badRequest("invalid id: %v", err)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
