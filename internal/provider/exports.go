package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	"github.com/Schera-ole/perfcounter/internal/perf"
)

// Status is an OS status code as returned by the Open/Collect/Close entry points.
type Status uint32

const (
	StatusSuccess       Status = 0
	StatusFileNotFound  Status = 2
	StatusInvalidHandle Status = 6
	StatusNotReady      Status = 21
	StatusGenFailure    Status = 31
	StatusMoreData      Status = 234
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "ERROR_SUCCESS"
	case StatusFileNotFound:
		return "ERROR_FILE_NOT_FOUND"
	case StatusInvalidHandle:
		return "ERROR_INVALID_HANDLE"
	case StatusNotReady:
		return "ERROR_NOT_READY"
	case StatusGenFailure:
		return "ERROR_GEN_FAILURE"
	case StatusMoreData:
		return "ERROR_MORE_DATA"
	default:
		return "ERROR_UNKNOWN"
	}
}

// StatusOf maps an error returned by the provider to a status code.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, internalerrors.ErrMoreData):
		return StatusMoreData
	case errors.Is(err, internalerrors.ErrServiceNotRegistered):
		return StatusFileNotFound
	case errors.Is(err, internalerrors.ErrNotOpen):
		return StatusNotReady
	case errors.Is(err, internalerrors.ErrClosed):
		return StatusInvalidHandle
	default:
		return StatusGenFailure
	}
}

// Err maps a status code back to the provider error it stands for.
func (s Status) Err() error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusMoreData:
		return internalerrors.ErrMoreData
	case StatusFileNotFound:
		return internalerrors.ErrServiceNotRegistered
	case StatusNotReady:
		return internalerrors.ErrNotOpen
	case StatusInvalidHandle:
		return internalerrors.ErrClosed
	default:
		return fmt.Errorf("collect failed: %s", s)
	}
}

// Exports presents a Provider through the three entry points a monitoring host calls,
// with status codes and in/out parameters instead of Go errors.
type Exports struct {
	provider      *Provider
	lookupTimeout time.Duration
	logger        *zap.SugaredLogger
}

// NewExports wraps p. lookupTimeout bounds the registry lookup done by Open.
func NewExports(p *Provider, lookupTimeout time.Duration, logger *zap.SugaredLogger) *Exports {
	return &Exports{provider: p, lookupTimeout: lookupTimeout, logger: logger}
}

// Open initializes the provider. deviceNames is the NUL-delimited, double-NUL
// terminated list the host passes; it may be empty.
func (e *Exports) Open(deviceNames string) Status {
	ctx, cancel := context.WithTimeout(context.Background(), e.lookupTimeout)
	defer cancel()

	status := StatusOf(e.provider.Open(ctx, SplitMultiString(deviceNames)))
	e.logger.Debugw("open", "status", status.String())
	return status
}

// Collect packs the provider's object at the start of *data.
//
// On entry *totalBytes is the capacity the host grants (never more than len(*data)).
// On success *data is resliced past the written bytes, *totalBytes holds the number
// written and *numObjectTypes is 1. On failure both counts are set to 0 and *data is
// left as it was.
func (e *Exports) Collect(valueName string, data *[]byte, totalBytes *uint32, numObjectTypes *uint32) Status {
	capacity := len(*data)
	if uint64(*totalBytes) < uint64(capacity) {
		capacity = int(*totalBytes)
	}
	cursor := perf.NewCursor((*data)[:capacity])

	written, objects, err := e.provider.Collect(valueName, cursor)
	if err != nil {
		*totalBytes = 0
		*numObjectTypes = 0
		status := StatusOf(err)
		e.logger.Debugw("collect failed", "status", status.String(), "error", err)
		return status
	}

	*data = (*data)[written:]
	*totalBytes = written
	*numObjectTypes = objects
	return StatusSuccess
}

// Collector returns a collector that packs objects through the Collect entry point,
// the same way a monitoring host calls it.
func (e *Exports) Collector() *ExportsCollector {
	return &ExportsCollector{exports: e}
}

// ExportsCollector adapts Exports.Collect to a cursor-based collector.
type ExportsCollector struct {
	exports *Exports
}

// Collect hands the cursor's free space to the Collect entry point and advances past
// what it wrote. A failing status is returned as the matching provider error.
func (c *ExportsCollector) Collect(query string, out *perf.Cursor) (uint32, uint32, error) {
	data := out.Remaining()
	totalBytes := uint32(math.MaxUint32)
	if uint64(len(data)) < uint64(totalBytes) {
		totalBytes = uint32(len(data))
	}
	var objects uint32

	if err := c.exports.Collect(query, &data, &totalBytes, &objects).Err(); err != nil {
		return 0, 0, err
	}
	if err := out.Advance(int(totalBytes)); err != nil {
		return 0, 0, err
	}
	return totalBytes, objects, nil
}

// Close closes the provider.
func (e *Exports) Close() Status {
	return StatusOf(e.provider.Close())
}

// SplitMultiString splits a NUL-delimited, double-NUL terminated string. Parsing stops at
// the first empty element.
func SplitMultiString(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "\x00") {
		if part == "" {
			break
		}
		out = append(out, part)
	}
	return out
}
