// Package config reads server settings from flags and the environment.
package config

import "time"

const (
	// DefaultAddress is where the server listens when ADDRESS is not set.
	DefaultAddress = "localhost:8080"

	// DefaultServiceName is the registry key of the built-in provider.
	DefaultServiceName = "PerfCounter"

	// DefaultLogLevel is the zap level used when LOG_LEVEL is not set.
	DefaultLogLevel = "info"

	// LookupTimeout bounds the registry lookup done when the provider is opened.
	LookupTimeout = 5 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout = 10 * time.Second
)
