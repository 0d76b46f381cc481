package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/Schera-ole/perfcounter/internal/symbols"
)

type ServerConfig struct {
	Address      string
	DatabaseDSN  string
	ServiceName  string
	FirstCounter uint32
	FirstHelp    uint32
	CounterText  string
	RegistryFile string
	AuditFile    string
	AuditURL     string
	LogLevel     string
}

// Base returns the name/help base used to seed an in-memory registry. It is zero when
// neither FIRST_COUNTER nor FIRST_HELP was given.
func (c *ServerConfig) Base() symbols.Base {
	return symbols.Base{FirstCounter: c.FirstCounter, FirstHelp: c.FirstHelp}
}

// NewServerConfig parses args (without the program name) and applies environment
// overrides on top of them.
func NewServerConfig(args []string) (*ServerConfig, error) {
	config := &ServerConfig{
		Address:     DefaultAddress,
		ServiceName: DefaultServiceName,
		LogLevel:    DefaultLogLevel,
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	address := fs.String("a", config.Address, "address")
	databaseDSN := fs.String("d", "", "database dsn")
	serviceName := fs.String("s", config.ServiceName, "registry key of the counter provider")
	firstCounter := fs.Uint("first-counter", 0, "first counter index for an in-memory registry")
	firstHelp := fs.Uint("first-help", 0, "first help index for an in-memory registry")
	counterText := fs.String("t", "", "value of the text counter")
	registryFile := fs.String("f", "", "file to restore and save the in-memory registry")
	auditFile := fs.String("audit-file", "", "path to audit log file")
	auditURL := fs.String("audit-url", "", "URL to send audit events to")
	logLevel := fs.String("l", config.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envVars := map[string]*string{
		"ADDRESS":       address,
		"DATABASE_DSN":  databaseDSN,
		"SERVICE_NAME":  serviceName,
		"COUNTER_TEXT":  counterText,
		"REGISTRY_FILE": registryFile,
		"AUDIT_FILE":    auditFile,
		"AUDIT_URL":     auditURL,
		"LOG_LEVEL":     logLevel,
	}

	for envVar, flag := range envVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	envUintVars := map[string]*uint{
		"FIRST_COUNTER": firstCounter,
		"FIRST_HELP":    firstHelp,
	}
	for envVar, flag := range envUintVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			v, err := strconv.ParseUint(envValue, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q: %w", envVar, envValue, err)
			}
			*flag = uint(v)
		}
	}

	for name, v := range map[string]uint{"first-counter": *firstCounter, "first-help": *firstHelp} {
		if uint64(v) > 1<<32-1 {
			return nil, fmt.Errorf("%s %d does not fit 32 bits", name, v)
		}
	}

	config.Address = *address
	config.DatabaseDSN = *databaseDSN
	config.ServiceName = *serviceName
	config.FirstCounter = uint32(*firstCounter)
	config.FirstHelp = uint32(*firstHelp)
	config.CounterText = *counterText
	config.RegistryFile = *registryFile
	config.AuditFile = *auditFile
	config.AuditURL = *auditURL
	config.LogLevel = *logLevel

	return config, nil
}
