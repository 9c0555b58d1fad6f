package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetboard/internal/core"
	blog "budgetboard/internal/log"
)

// maxBodyBytes caps request bodies; the largest form is a few hundred bytes.
const maxBodyBytes = 1 << 20

var errBadID = errors.New("invalid id")

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", blog.FieldError, err)
	}
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, blog.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, blog.ErrorTypeNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, blog.ErrorTypeConflict
	case errors.Is(err, errBadID):
		return http.StatusBadRequest, blog.ErrorTypeValidation
	default:
		return http.StatusInternalServerError, blog.ErrorTypeInternal
	}
}

// writeError replies with {"error": ...}. Internal errors are logged and
// their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, errType := errorStatus(err)
	var msg string
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		msg = ve.Msg
	case status == http.StatusNotFound:
		msg = core.ErrNotFound.Error()
	case status == http.StatusConflict:
		msg = core.ErrConflict.Error()
	case status == http.StatusInternalServerError:
		blog.NewStructuredLogger(blog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, errType, op)
		msg = "internal server error"
	default:
		msg = err.Error()
	}
	writeErrorMessage(w, status, msg)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathID reads the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// queryInt64 returns the named query value, 0 when missing or malformed.
func queryInt64(r *http.Request, key string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get(key)), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func queryInt(r *http.Request, key string) int {
	return int(queryInt64(r, key))
}

// pageRequest reads page, page_size and q.
func (s *Server) pageRequest(r *http.Request) core.PageRequest {
	return core.NewPageRequest(queryInt(r, "page"), queryInt(r, "page_size"), s.pageSize, sanitizeInput(r.URL.Query().Get("q")))
}

// expenseFilter reads the expense filter query parameters.
func expenseFilter(r *http.Request) (core.ExpenseFilter, error) {
	q := r.URL.Query()
	from, err := core.ParseDate(q.Get("from"))
	if err != nil {
		return core.ExpenseFilter{}, err
	}
	to, err := core.ParseDate(q.Get("to"))
	if err != nil {
		return core.ExpenseFilter{}, err
	}
	f := core.ExpenseFilter{
		BudgetID:   queryInt64(r, "budgetid"),
		CategoryID: queryInt64(r, "categoryid"),
		ProjectID:  queryInt64(r, "projectid"),
		From:       from,
		To:         to,
	}
	return f, f.Validate()
}

// reportParams reads year, projectid and categoryid; the year defaults to the current one.
func (s *Server) reportParams(r *http.Request) (int, core.ReportScope) {
	year := queryInt(r, "year")
	if year < 1900 || year > 9999 {
		year = s.now().Year()
	}
	return year, core.ReportScope{
		ProjectID:  queryInt64(r, "projectid"),
		CategoryID: queryInt64(r, "categoryid"),
	}
}

// sanitizeInput removes control characters except tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func uptime(since time.Time) string {
	return time.Since(since).Round(time.Second).String()
}
