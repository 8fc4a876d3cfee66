package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/logging"
)

type ErrorResponse struct {
	Error string
	Kind  entity.ErrorKind `json:",omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	raw, err := marshal(r, res)
	if err != nil {
		Error(w, r, fmt.Errorf("failed to marshal JSON result: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func marshal(r *http.Request, res interface{}) ([]byte, error) {
	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		return json.MarshalIndent(res, "", "  ")
	}
	return json.Marshal(res)
}

// StatusCode maps domain errors to http status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrSuperseded), errors.Is(err, entity.ErrBusy):
		return http.StatusConflict
	}
	if kind, ok := entity.ErrorKindOf(err); ok && kind != entity.ErrorKindNormalization {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	logger := logging.LoggerFromContext(r.Context()).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		logger.Error("request handling failed")
	} else {
		logger.Warn("request rejected")
	}

	res := ErrorResponse{Error: err.Error()}
	res.Kind, _ = entity.ErrorKindOf(err)
	raw, _ := json.Marshal(res)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
