package http

import (
	"log/slog"
	"net/http"

	"github.com/fwojciec/mtgrules"
)

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	mtgrules.ECONFLICT:    http.StatusConflict,
	mtgrules.EINVALID:     http.StatusBadRequest,
	mtgrules.ENOTFOUND:    http.StatusNotFound,
	mtgrules.EUNAVAILABLE: http.StatusBadGateway,
	mtgrules.ESCHEMA:      http.StatusInternalServerError,
	mtgrules.EINTERNAL:    http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error writes err as a JSON error response. Internal errors are logged
// and their message hidden from the client.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code, message := mtgrules.ErrorCode(err), mtgrules.ErrorMessage(err)
	if status := ErrorStatusCode(code); status == http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		if code == mtgrules.EINTERNAL {
			message = "internal error"
		}
	}
	writeJSON(w, ErrorStatusCode(code), &ErrorResponse{Error: message})
}
