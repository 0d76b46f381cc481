package agent

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

type AgentConfig struct {
	// PollInterval is the number of seconds between polls
	PollInterval int
	Address      string
	Query        string
	LogLevel     string
}

// NewAgentConfig parses args (without the program name) and applies environment
// overrides on top of them.
func NewAgentConfig(args []string) (*AgentConfig, error) {
	config := &AgentConfig{
		PollInterval: 2,
		Address:      "localhost:8080",
		Query:        "Global",
		LogLevel:     "info",
	}

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	pollInterval := fs.Int("p", config.PollInterval, "seconds between polls of the counter server")
	address := fs.String("a", config.Address, "address of the counter server")
	query := fs.String("q", config.Query, "collect query passed to the providers")
	logLevel := fs.String("l", config.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envStrVars := map[string]*string{
		"ADDRESS":   address,
		"QUERY":     query,
		"LOG_LEVEL": logLevel,
	}
	for envVar, flag := range envStrVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	if envValue := os.Getenv("POLL_INTERVAL"); envValue != "" {
		interval, err := strconv.Atoi(envValue)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL value %q: %w", envValue, err)
		}
		*pollInterval = interval
	}
	if *pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %d", *pollInterval)
	}

	config.Address = *address
	config.PollInterval = *pollInterval
	config.Query = *query
	config.LogLevel = *logLevel

	return config, nil
}
