// Package perfcounter implements an extensible performance counter provider and the
// host-side harness that collects from it.
//
// The provider publishes one counter object with two counters:
//   - a Unicode text counter holding a fixed string ("Hello, World!" by default)
//   - a 32-bit counter holding a random value in [0, 10)
//
// Objects are packed in the host's binary layout (object header, counter definitions,
// counter block, data) with little-endian fields and 8-byte aligned totals. Name and
// help indices come from the base the host assigned to the service, looked up in an
// in-memory or PostgreSQL registry when the provider is opened.
//
// Features:
//   - Open/Collect/Close entry points with host status codes
//   - Buffer growth and retry when a collection does not fit
//   - Decoding of collected buffers into objects and counter values
//   - REST API for raw and decoded collections and for the registry
//   - Prometheus metrics, structured logging and audit logging
//   - Graceful shutdown handling
//
// The server includes an agent component that polls decoded values. Both components
// support configuration via command-line flags and environment variables.
package perfcounter
