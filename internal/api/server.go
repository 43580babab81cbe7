// Package api exposes the engine over a small HTTP surface: a health
// check and a mutation submission endpoint. The wire format is plain
// JSON; persistence formats stay entirely inside the backends.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stampede-db/stampede/pkg/engine"
)

// MutationPayload is the JSON body accepted by POST /mutations.
type MutationPayload struct {
	Table     string `json:"table"`
	Operation string `json:"operation"` // "update" or "delete"
	Filters   []struct {
		Field string      `json:"field"`
		Op    string      `json:"op"`
		Value interface{} `json:"value"`
	} `json:"filters"`
	Assignments []struct {
		Field string      `json:"field"`
		Value interface{} `json:"value"`
		Now   bool        `json:"now"`
	} `json:"assignments"`
}

// ReportPayload is the JSON rendering of a MutationReport.
type ReportPayload struct {
	RequestID        string   `json:"request_id"`
	RowsAffected     int64    `json:"rows_affected"`
	Strategy         string   `json:"strategy"`
	ElapsedMillis    int64    `json:"elapsed_millis"`
	StaleReadWarning bool     `json:"stale_read_warning"`
	Warnings         []string `json:"warnings,omitempty"`
	Error            string   `json:"error,omitempty"`
	ErrorCode        string   `json:"error_code,omitempty"`
}

// NewServer wires the mutation endpoint and a health check onto a router.
func NewServer(eng *engine.Engine) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/mutations", handleMutation(eng))

	return r
}

func handleMutation(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload MutationPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
			return
		}

		req, err := buildRequest(eng, payload)
		if err != nil {
			writeError(w, http.StatusBadRequest, errorCode(err), err.Error())
			return
		}

		report, err := eng.Execute(r.Context(), req)
		if err != nil {
			writeFailure(w, report, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayload(report, nil))
	}
}

func buildRequest(eng *engine.Engine, payload MutationPayload) (*engine.MutationRequest, error) {
	schema := eng.Schema()
	if schema == nil {
		return nil, errors.New("engine has no schema loaded")
	}

	var kind engine.OperationKind
	switch payload.Operation {
	case "update":
		kind = engine.OpUpdate
	case "delete":
		kind = engine.OpDelete
	default:
		return nil, errors.New("operation must be 'update' or 'delete'")
	}

	builder := engine.NewRequest(payload.Table, kind)
	for _, f := range payload.Filters {
		builder.Filter(f.Field, engine.Operator(f.Op), normalizeNumber(f.Value))
	}
	for _, a := range payload.Assignments {
		if a.Now {
			builder.SetNow(a.Field)
		} else {
			builder.Set(a.Field, normalizeNumber(a.Value))
		}
	}
	return builder.Build(schema)
}

// normalizeNumber converts whole-valued JSON numbers to int64, since
// encoding/json decodes every number to float64 and most filtered
// columns are integers.
func normalizeNumber(v interface{}) interface{} {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if f == float64(int64(f)) {
		return int64(f)
	}
	return f
}

func toPayload(report *engine.MutationReport, err error) ReportPayload {
	p := ReportPayload{}
	if report != nil {
		p.RequestID = report.RequestID.String()
		p.RowsAffected = report.RowsAffected
		p.Strategy = report.StrategyUsed.String()
		p.ElapsedMillis = report.Elapsed.Milliseconds()
		p.StaleReadWarning = report.StaleReadWarning
		p.Warnings = report.Warnings
	}
	if err != nil {
		p.Error = err.Error()
		p.ErrorCode = errorCode(err)
	}
	return p
}

func errorCode(err error) string {
	var mutErr engine.MutationError
	if errors.As(err, &mutErr) {
		return mutErr.Code()
	}
	return "INTERNAL"
}

// writeFailure renders an execution failure. The partial report state
// travels with the error so callers see rows committed so far.
func writeFailure(w http.ResponseWriter, report *engine.MutationReport, err error) {
	status := http.StatusInternalServerError
	switch errorCode(err) {
	case "VALIDATION_ERROR":
		status = http.StatusBadRequest
	case "BACKEND_UNAVAILABLE":
		status = http.StatusServiceUnavailable
	case "PARTIAL_FAILURE":
		status = http.StatusConflict
	}
	writeJSON(w, status, toPayload(report, err))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ReportPayload{Error: message, ErrorCode: code})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
