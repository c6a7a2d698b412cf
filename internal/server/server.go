// Package server is the web surface: one form page per functionality, rendered outcomes, and a JSON
// dispatch endpoint, all driven by the dispatch controller.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/morezero/course-recommender/internal/config"
	"github.com/morezero/course-recommender/pkg/dispatcher"
	"github.com/morezero/course-recommender/pkg/form"
	"github.com/morezero/course-recommender/pkg/interpreter"
)

const logPrefix = "server:server"

// maxFormBytes caps request bodies; every field is at most a few dozen bytes.
const maxFormBytes = 64 << 10

// Server renders the functionality pages.
type Server struct {
	ctrl    *dispatcher.Controller
	version string
	commsUp func() bool
	nav     []navItem
	page    *template.Template
}

// Params configures New. CommsConnected is optional and only feeds /health.
type Params struct {
	Controller     *dispatcher.Controller
	CatalogVersion string
	CommsConnected func() bool
}

// New creates a Server. Navigation is resolved once since the registry never changes.
func New(p Params) (*Server, error) {
	s := &Server{
		ctrl:    p.Controller,
		version: p.CatalogVersion,
		commsUp: p.CommsConnected,
		page:    template.Must(template.New("page").Parse(pageTemplate)),
	}
	for _, name := range p.Controller.Names() {
		fv, err := p.Controller.Form(name)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to resolve form %s: %w", logPrefix, name, err)
		}
		s.nav = append(s.nav, navItem{Name: name, Title: fv.DisplayTitle})
	}
	return s, nil
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/f/", s.handleFunctionality())
	mux.HandleFunc("/api/dispatch", s.handleDispatchAPI())
	mux.HandleFunc("/api/functionalities", s.handleFunctionalitiesAPI())
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	return mux
}

// Run serves the web UI until SIGINT or SIGTERM.
func Run(cfg *config.Config) error {
	slog.Info(fmt.Sprintf("%s - Starting course-recommender web UI", logPrefix))

	c, err := Build(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	params := Params{Controller: c.Controller, CatalogVersion: c.Registry.Version()}
	if c.Conn != nil {
		params.CommsConnected = c.Conn.IsConnected
	}
	s, err := New(params)
	if err != nil {
		return err
	}

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{Addr: httpAddr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - Web UI listening on %s", logPrefix, httpAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Web UI is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// handleHome shows the first functionality's form. Nothing is dispatched.
func (s *Server) handleHome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			s.renderNotFound(w, "Page not found.")
			return
		}
		if len(s.nav) == 0 {
			s.render(w, http.StatusOK, s.pageData("", nil, nil, nil))
			return
		}
		fv, err := s.ctrl.Form(s.nav[0].Name)
		if err != nil {
			s.renderNotFound(w, err.Error())
			return
		}
		s.render(w, http.StatusOK, s.pageData(fv.Name, fv, nil, nil))
	}
}

// handleFunctionality serves GET (form only) and POST (dispatch) for /f/<name>.
// The selection is checked before any form is rendered.
func (s *Server) handleFunctionality() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(strings.Trim(strings.TrimPrefix(r.URL.Path, "/f/"), "/"))
		if err != nil || name == "" {
			s.renderNotFound(w, "Unknown functionality.")
			return
		}
		fv, err := s.ctrl.Form(name)
		if err != nil {
			slog.Debug(fmt.Sprintf("%s - %v", logPrefix, err))
			s.renderNotFound(w, err.Error())
			return
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead:
			s.render(w, http.StatusOK, s.pageData(name, fv, nil, nil))
		case http.MethodPost:
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			src := form.URLValuesSource(r.PostForm)
			pres, err := s.ctrl.Dispatch(r.Context(), &dispatcher.DispatchRequest{Functionality: name, Source: src})
			status := http.StatusOK
			var ov *outcomeView
			if err != nil {
				detail := dispatcher.ErrorDetailFor(err)
				status = statusForCode(detail.Code)
				ov = errorView(detail)
			} else {
				ov = presentationView(pres)
			}
			s.render(w, status, s.pageData(name, fv, submitted(fv, src), ov))
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleDispatchAPI is the JSON form of a submission: dispatcher.Request in, dispatcher.Response out.
func (s *Server) handleDispatchAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req dispatcher.Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
			slog.Debug(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			writeJSON(w, http.StatusBadRequest, &dispatcher.Response{
				Ok:    false,
				Error: &dispatcher.ErrorDetail{Code: dispatcher.CodeInvalidArgument, Message: "Failed to decode request"},
			})
			return
		}

		pres, err := s.ctrl.Dispatch(r.Context(), &dispatcher.DispatchRequest{Functionality: req.Functionality, Values: req.Values})
		resp := dispatcher.Respond(req.ID, pres, err)
		status := http.StatusOK
		if resp.Error != nil {
			status = statusForCode(resp.Error.Code)
		}
		writeJSON(w, status, resp)
	}
}

func (s *Server) handleFunctionalitiesAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]*dispatcher.FormView, 0, len(s.nav))
		for _, n := range s.nav {
			fv, err := s.ctrl.Form(n.Name)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			out = append(out, fv)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"version": s.version, "functionalities": out})
	}
}

type healthOutput struct {
	Status         string          `json:"status"`
	CatalogVersion string          `json:"catalogVersion,omitempty"`
	Checks         map[string]bool `json:"checks"`
	Timestamp      string          `json:"timestamp"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := healthOutput{
			Status:         "healthy",
			CatalogVersion: s.version,
			Checks:         map[string]bool{"registry": len(s.nav) > 0},
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		}
		if s.commsUp != nil {
			h.Checks["comms"] = s.commsUp()
		}
		for _, ok := range h.Checks {
			if !ok {
				h.Status = "unhealthy"
			}
		}
		status := http.StatusOK
		if h.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	}
}

// statusForCode maps an envelope error code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case dispatcher.CodeUnknownFunctionality:
		return http.StatusNotFound
	case dispatcher.CodeInvalidArgument:
		return http.StatusBadRequest
	case dispatcher.CodeGatewayError, dispatcher.CodeMalformedResult:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// submitted echoes the declared fields back into the re-rendered form.
func submitted(fv *dispatcher.FormView, src form.Source) map[string]string {
	out := make(map[string]string, len(fv.Fields))
	for _, f := range fv.Fields {
		if v, ok := src.Lookup(f.Name); ok {
			out[f.Name] = v
		}
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, status int, data *pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		slog.Error(fmt.Sprintf("%s - page template execute: %v", logPrefix, err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) renderNotFound(w http.ResponseWriter, message string) {
	data := s.pageData("", nil, nil, &outcomeView{Kind: "error", Message: message})
	s.render(w, http.StatusNotFound, data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - encode response: %v", logPrefix, err))
	}
}

// presentationView flattens a Presentation for the template. Table cells follow Columns() order.
func presentationView(p *interpreter.Presentation) *outcomeView {
	ov := &outcomeView{Kind: string(p.Kind), Message: p.Message}
	if p.Detail != nil {
		ov.Detail = *p.Detail
		ov.HasDetail = true
	}
	if p.Kind == interpreter.KindTable {
		ov.Columns = p.Records.Columns()
		for _, rec := range p.Records {
			row := make([]string, len(ov.Columns))
			for i, c := range ov.Columns {
				v, _ := rec.Get(c)
				row[i] = interpreter.FormatValue(v)
			}
			ov.Rows = append(ov.Rows, row)
		}
	}
	return ov
}

func errorView(d *dispatcher.ErrorDetail) *outcomeView {
	ov := &outcomeView{Kind: "error", Message: d.Message}
	if d.Retryable {
		ov.Detail = "You can submit the form again."
		ov.HasDetail = true
	}
	return ov
}
