// Package httpjson holds the JSON request/response helpers shared by the
// HTTP handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/pkg/encoding"
	apierrors "github.com/emilydias-boop/mcf-insight-hub/pkg/errors"
)

// ActorHeader carries the id of the user acting on a request. Authentication
// happens upstream; handlers only record who acted.
const ActorHeader = "X-Actor-ID"

const maxBodyBytes = 1 << 20

// WriteJSON encodes body with the given status. Encoding happens before the
// header is written, so a body that cannot be encoded becomes a 500.
func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, body interface{}) {
	buf, err := encoding.EncodeJSON(body)
	if err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error","category":"system_error"}}` + "\n"))
		return
	}
	defer encoding.PutBuffer(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

// WriteError maps err to a status and JSON error body. Server-side failures
// are logged with the underlying error; the client sees an opaque message.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	apiErr := apierrors.FromError(err)
	status := apierrors.HTTPStatus(apiErr.Category)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err), zap.String("code", apiErr.Code))
	}
	WriteJSON(w, logger, status, map[string]interface{}{"error": apiErr})
}

// WriteBadRequest reports a malformed request
func WriteBadRequest(w http.ResponseWriter, logger *zap.Logger, field, message string) {
	WriteJSON(w, logger, http.StatusBadRequest, map[string]interface{}{
		"error": apierrors.NewValidationError(field, message),
	})
}

// DecodeJSON reads a single JSON object into dst, rejecting unknown fields
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// Actor returns the acting user id, or "" when the header is missing
func Actor(r *http.Request) string {
	return r.Header.Get(ActorHeader)
}
