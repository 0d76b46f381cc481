// Package audit records who collected counters and how much data they got.
//
// Events are published on a channel and fanned out to subscribers that append them to
// a file or post them to an HTTP endpoint. Publishing never blocks the collection path.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	models "github.com/Schera-ole/perfcounter/internal/model"
)

// AuditLogger is an interface for logging audit events.
type AuditLogger interface {
	// Log publishes one collection event.
	Log(query string, bytes int, objects uint32, ipAddress string)
}

// ChannelLogger publishes events on a channel it owns. After Close, events are discarded.
type ChannelLogger struct {
	// mu guards closed and sends on eventChan
	mu        sync.RWMutex
	closed    bool
	eventChan chan<- models.AuditEvent
	logger    *zap.SugaredLogger
	now       func() time.Time
}

var _ AuditLogger = (*ChannelLogger)(nil)

// NewAuditLogger creates a ChannelLogger that publishes to eventChan. Close closes
// eventChan, so nothing else may close it.
func NewAuditLogger(eventChan chan<- models.AuditEvent, logger *zap.SugaredLogger) *ChannelLogger {
	return &ChannelLogger{
		eventChan: eventChan,
		logger:    logger,
		now:       time.Now,
	}
}

// Close stops publishing and closes the event channel. It is safe to call more than once
// and concurrently with Log.
func (a *ChannelLogger) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	close(a.eventChan)
}

func (a *ChannelLogger) Log(query string, bytes int, objects uint32, ipAddress string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.Debugw("audit event after close", "query", query, "ip", ipAddress)
		return
	}

	event := models.AuditEvent{
		TS:        a.now().Format(time.RFC3339),
		Query:     query,
		Bytes:     bytes,
		Objects:   objects,
		IPAddress: ipAddress,
	}

	select {
	case a.eventChan <- event:
	default:
		a.logger.Warnw("audit event dropped, channel is full", "query", query, "ip", ipAddress)
	}
}

// Broadcaster copies every event from source to each subscriber channel until source is
// closed, then closes the subscribers. A subscriber that is not ready loses the event.
func Broadcaster(logger *zap.SugaredLogger, source <-chan models.AuditEvent, subs ...chan<- models.AuditEvent) {
	defer func() {
		for _, subChan := range subs {
			close(subChan)
		}
	}()

	for evt := range source {
		for i, subChan := range subs {
			select {
			case subChan <- evt:
			default:
				logger.Warnw("audit event dropped for blocked subscriber", "subscriber", i)
			}
		}
	}
}

// FileSubscriber appends events to path as JSON lines.
func FileSubscriber(events <-chan models.AuditEvent, path string, logger *zap.SugaredLogger) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit file %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for evt := range events {
		if err := enc.Encode(evt); err != nil {
			logger.Errorw("cannot write audit event", "file", path, "error", err)
		}
	}
	return nil
}

// URLSubscriber posts each event as JSON to url.
func URLSubscriber(ctx context.Context, events <-chan models.AuditEvent, client *http.Client, url string, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorw("cannot marshal audit event", "error", err)
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			logger.Errorw("cannot create audit request", "url", url, "error", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			logger.Warnw("cannot send audit event", "url", url, "error", err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			logger.Warnw("audit endpoint rejected event", "url", url, "status", resp.StatusCode)
		}
	}
}
