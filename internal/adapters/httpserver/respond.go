package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/phenrril/shopapi/internal/domain"
)

// envelope is the uniform response body: every endpoint answers with the
// status code repeated in the payload, a message, the data and any errors.
type envelope struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Errors     any    `json:"errors"`
}

// page wraps list data for paginated endpoints.
type page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, envelope{StatusCode: code, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	var verr domain.ValidationError
	var cerr *domain.ConflictError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, envelope{
			StatusCode: http.StatusBadRequest,
			Message:    "validation failed",
			Errors:     verr,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{
			StatusCode: http.StatusNotFound,
			Message:    "not found",
		})
	case errors.Is(err, domain.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, envelope{
			StatusCode: http.StatusForbidden,
			Message:    "permission denied",
		})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, envelope{
			StatusCode: http.StatusConflict,
			Message:    cerr.Message,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, envelope{
			StatusCode: http.StatusInternalServerError,
			Message:    "internal error",
		})
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    "method not allowed",
	})
}

// paginate slices the full result set and builds the count/next/previous
// links from the request URL.
func paginate[T any](r *http.Request, items []T) page {
	q := r.URL.Query()
	pageNum, _ := strconv.Atoi(q.Get("page"))
	if pageNum < 1 {
		pageNum = 1
	}
	size, _ := strconv.Atoi(q.Get("page_size"))
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	count := len(items)
	start := (pageNum - 1) * size
	if start > count {
		start = count
	}
	end := start + size
	if end > count {
		end = count
	}

	link := func(n int) *string {
		qc := url.Values{}
		for k, vs := range q {
			qc[k] = vs
		}
		qc.Set("page", strconv.Itoa(n))
		u := r.URL.Path + "?" + qc.Encode()
		return &u
	}
	var next, prev *string
	if end < count {
		next = link(pageNum + 1)
	}
	if pageNum > 1 {
		prev = link(pageNum - 1)
	}

	return page{Count: count, Next: next, Previous: prev, Results: items[start:end]}
}
