package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/imagestore"
)

// ErrorBody is the error response envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, typ, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Message: message, Type: typ}})
}

// writeFailure maps err to a status code by its kind.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	detail := ErrorDetail{Message: err.Error(), Type: string(errpolicy.KindOf(err))}

	var verr config.ValidationError
	var perr *errpolicy.Error
	switch {
	case errors.Is(err, imagestore.ErrNotFound):
		status, detail.Type = http.StatusNotFound, "not_found"
	case errors.As(err, &verr):
		status, detail.Type = http.StatusBadRequest, string(errpolicy.KindConfiguration)
	case errors.As(err, &perr):
		detail.ID = perr.ID
		switch perr.Kind {
		case errpolicy.KindConfiguration:
			status = http.StatusBadRequest
		case errpolicy.KindDevice:
			status = http.StatusServiceUnavailable
		case errpolicy.KindDataFetch:
			status = http.StatusBadGateway
		}
	}
	writeJSON(w, status, ErrorBody{Error: detail})
}
