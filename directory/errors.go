package directory

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
)

// StatusError is a non-2xx response from the directory API.
type StatusError struct {
	Operation  string
	StatusCode int
	Code       string // API error code, e.g. "ErrorItemNotFound"
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s: %s", e.Operation, e.StatusCode, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	return errors.ErrUpstream
}

// IsNotFound reports whether err is a 404 from the directory API.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newStatusError(operation string, resp *http.Response) *StatusError {
	statusErr := &StatusError{Operation: operation, StatusCode: resp.StatusCode}

	var envelope errorEnvelope
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(body, &envelope) == nil {
		statusErr.Code = envelope.Error.Code
		statusErr.Message = envelope.Error.Message
	}
	return statusErr
}
