package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/perfcounter/internal/agent"
	models "github.com/Schera-ole/perfcounter/internal/model"
)

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func isRetryableError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Check any network errors
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "connection reset by peer") {
		return true
	}

	return false
}

func valuesURL(address, query string) string {
	return "http://" + address + "/value?query=" + url.QueryEscape(query)
}

// fetchObjects polls the server once, retrying transient failures.
func fetchObjects(ctx context.Context, client *http.Client, url string, logger *zap.SugaredLogger) ([]models.ObjectDTO, error) {
	var lastErr error

	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if attempt > 0 {
			delay := retryDelays[attempt-1]
			logger.Infow("retrying poll", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("error creating request for %s: %w", url, err)
		}
		request.Header.Set("Accept", "application/json")

		response, err := client.Do(request)
		if err != nil {
			lastErr = fmt.Errorf("error sending request for %s: %w", url, err)
			if isRetryableError(err) {
				logger.Warnw("retryable error occurred", "error", err)
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(response.Body)
		response.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("error reading response body: %w", err)
			continue
		}

		if response.StatusCode >= 500 {
			lastErr = fmt.Errorf("server returned error status %d: %s", response.StatusCode, string(body))
			logger.Warnw("server error, will retry", "error", lastErr)
			continue
		}
		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("server returned error status %d: %s", response.StatusCode, string(body))
		}

		var objects []models.ObjectDTO
		if err := json.Unmarshal(body, &objects); err != nil {
			return nil, fmt.Errorf("error decoding response: %w", err)
		}
		return objects, nil
	}

	return nil, fmt.Errorf("failed to poll after %d attempts: %w", len(retryDelays)+1, lastErr)
}

func poll(ctx context.Context, client *http.Client, url string, interval time.Duration, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		objects, err := fetchObjects(ctx, client, url, logger)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorw("poll failed", "error", err)
		}
		for _, r := range agent.Flatten(objects) {
			logger.Infow("counter", "object", r.Object, "counter", r.Counter, "kind", r.Kind, "value", r.Value)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func main() {
	agentConfig, err := agent.NewAgentConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to parse configuration:", err)
		os.Exit(2)
	}

	level, err := zap.ParseAtomicLevel(agentConfig.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid log level:", err)
		os.Exit(2)
	}
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = level
	zapLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 10 * time.Second}
	url := valuesURL(agentConfig.Address, agentConfig.Query)
	logger.Infow("starting agent", "url", url, "poll_interval", agentConfig.PollInterval)

	poll(ctx, client, url, time.Duration(agentConfig.PollInterval)*time.Second, logger)
	logger.Info("Shutting down...")
}
