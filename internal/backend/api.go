// Package backend serves the course catalog operations the UI gateway calls, over HTTP and COMMS.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/morezero/course-recommender/pkg/db"
	"github.com/morezero/course-recommender/pkg/resultset"
)

const logPrefix = "backend:api"

// Caller runs one operation. *db.Repository implements it.
type Caller interface {
	Call(ctx context.Context, operation string, params map[string]string) (resultset.ResultSet, error)
}

// Pinger reports database reachability. *pgxpool.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// API exposes every db.Procedures operation as GET /<operation>.
type API struct {
	caller        Caller
	pinger        Pinger
	healthTimeout time.Duration
	version       string
}

// APIParams configures NewAPI. Pinger may be nil, in which case /health only reports the process is up.
type APIParams struct {
	Caller        Caller
	Pinger        Pinger
	HealthTimeout time.Duration
	Version       string
}

// NewAPI creates a new API.
func NewAPI(p APIParams) *API {
	a := &API{caller: p.Caller, pinger: p.Pinger, healthTimeout: p.HealthTimeout, version: p.Version}
	if a.healthTimeout <= 0 {
		a.healthTimeout = 5 * time.Second
	}
	if a.version == "" {
		a.version = "1.0.0"
	}
	return a
}

// dataResponse is the success body: {"data": [...]}.
type dataResponse struct {
	Data resultset.ResultSet `json:"data"`
}

// errorResponse is the failure body, shaped like FastAPI's {"detail": "..."}.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Handler returns the API's routes.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, p := range db.Procedures {
		h := a.handleOperation(p.Operation)
		mux.HandleFunc("/"+p.Operation, h)
		mux.HandleFunc("/"+p.Operation+"/", h)
	}
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc("/openapi.json", a.handleOpenAPI)
	mux.HandleFunc("/docs", a.handleDocs)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found"})
	})
	return mux
}

func (a *API) handleOperation(operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "Method Not Allowed"})
			return
		}

		params := make(map[string]string)
		for k, vs := range r.URL.Query() {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}

		start := time.Now()
		rs, err := a.caller.Call(r.Context(), operation, params)
		if err != nil {
			status, detail := statusFor(err)
			if status >= http.StatusInternalServerError {
				slog.Error(fmt.Sprintf("%s - %s failed: %v", logPrefix, operation, err))
			} else {
				slog.Debug(fmt.Sprintf("%s - %s rejected: %v", logPrefix, operation, err))
			}
			writeJSON(w, status, errorResponse{Detail: detail})
			return
		}
		slog.Debug(fmt.Sprintf("%s - %s returned %d rows in %s", logPrefix, operation, len(rs), time.Since(start)))
		writeJSON(w, http.StatusOK, dataResponse{Data: rs})
	}
}

// statusFor maps a Call error to an HTTP status and a message safe to return.
func statusFor(err error) (int, string) {
	var perr *db.ParamError
	switch {
	case errors.As(err, &perr):
		return http.StatusUnprocessableEntity, perr.Error()
	case errors.Is(err, db.ErrUnknownOperation):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request cancelled"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

type healthOutput struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks"`
	Timestamp string          `json:"timestamp"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := healthOutput{Status: "healthy", Checks: map[string]bool{}, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	if a.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), a.healthTimeout)
		defer cancel()
		ok := a.pinger.Ping(ctx) == nil
		out.Checks["database"] = ok
		if !ok {
			out.Status = "unhealthy"
		}
	}
	status := http.StatusOK
	if out.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - encode response: %v", logPrefix, err))
	}
}
