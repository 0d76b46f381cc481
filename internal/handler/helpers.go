package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	"github.com/Schera-ole/perfcounter/internal/service"
)

// DefaultQuery is used when a collect request carries no query.
const DefaultQuery = "Global"

func queryOf(r *http.Request) string {
	if q := r.URL.Query().Get("query"); q != "" {
		return q
	}
	return DefaultQuery
}

// ClientIP returns the caller's address, preferring X-Real-IP when a proxy set it.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// StatusFor maps service and registry errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, internalerrors.ErrServiceNotRegistered),
		errors.Is(err, service.ErrCounterNotFound):
		return http.StatusNotFound
	case errors.Is(err, internalerrors.ErrServiceAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, internalerrors.ErrInvalidBase):
		return http.StatusBadRequest
	case errors.Is(err, internalerrors.ErrNotOpen),
		errors.Is(err, internalerrors.ErrClosed),
		errors.Is(err, internalerrors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, internalerrors.ErrBufferLimit):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func parseIndex(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return uint32(v), nil
}

// ReadJSON decodes a request body into v. Gzip bodies are already unpacked by the
// middleware.
func ReadJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON format: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
