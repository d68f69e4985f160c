// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/kanak-erp/kanak/internal/shared"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound      = shared.ErrNotFound
	ErrConflict      = errors.New("conflict")
	ErrValidation    = shared.ErrValidation
	ErrUnprocessable = errors.New("unprocessable")
	ErrUpstream      = errors.New("upstream failure")
)

// Mapping binds a domain sentinel to an HTTP status.
type Mapping struct {
	Err    error
	Status int
	Title  string
}

var defaults = []Mapping{
	{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Err: ErrConflict, Status: http.StatusConflict, Title: "Conflict"},
	{Err: shared.ErrLocked, Status: http.StatusConflict, Title: "Locked"},
	{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: ErrUnprocessable, Status: http.StatusUnprocessableEntity, Title: "Unprocessable"},
	{Err: ErrUpstream, Status: http.StatusBadGateway, Title: "Upstream Failure"},
}

// RespondError maps domain errors to HTTP responses using RFC7807. Package
// specific mappings are checked before the defaults.
func RespondError(w http.ResponseWriter, err error, extra ...Mapping) {
	var fields map[string]string
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		fields = verr.Fields
	}
	for _, m := range append(extra, defaults...) {
		if errors.Is(err, m.Err) {
			WriteProblem(w, ProblemDetail{Title: m.Title, Status: m.Status, Detail: err.Error(), Errors: fields})
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
