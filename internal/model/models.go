// Package models defines the data structures exchanged over the HTTP API and written
// to the audit log.
package models

// Registration binds a service to the name/help base assigned by the host.
type Registration struct {
	// Service is the registry key of the provider
	Service string `json:"service"`

	// FirstCounter is the absolute index of the object's name
	FirstCounter uint32 `json:"first_counter"`

	// FirstHelp is the absolute index of the object's help text
	FirstHelp uint32 `json:"first_help"`
}

// CounterDTO is one decoded counter of a collected object.
type CounterDTO struct {
	// Symbol is the symbolic name of the counter's relative offset, if known
	Symbol string `json:"symbol,omitempty"`

	// NameIndex and HelpIndex are the absolute title indices
	NameIndex uint32 `json:"name_index"`
	HelpIndex uint32 `json:"help_index"`

	// Type is the raw CounterType bit field
	Type uint32 `json:"type"`

	// Kind is the decoded value kind ("dword", "large", "text" or "zero")
	Kind string `json:"kind"`

	// Size is the declared size of the value in bytes
	Size uint32 `json:"size"`

	// Value is uint32, uint64 or string depending on Kind (omitted for zero counters)
	Value any `json:"value,omitempty"`
}

// ObjectDTO is one decoded counter object.
type ObjectDTO struct {
	// Symbol is the symbolic name of the object, if known
	Symbol string `json:"symbol,omitempty"`

	NameIndex uint32 `json:"name_index"`
	HelpIndex uint32 `json:"help_index"`

	// TotalByteLength is the aligned size of the object in the collected buffer
	TotalByteLength uint32 `json:"total_byte_length"`

	// PerfTime and PerfFreq are the object's timestamp and its frequency
	PerfTime int64 `json:"perf_time"`
	PerfFreq int64 `json:"perf_freq"`

	Counters []CounterDTO `json:"counters"`
}

// AuditEvent represents an audit log entry for one collection.
type AuditEvent struct {
	// TS is the timestamp of the event in ISO 8601 format
	TS string `json:"ts"`

	// Query is the value name passed to the providers
	Query string `json:"query"`

	// Bytes is the size of the collected snapshot
	Bytes int `json:"bytes"`

	// Objects is the number of objects in the snapshot
	Objects uint32 `json:"objects"`

	// IPAddress is the IP address of the client that initiated the collection
	IPAddress string `json:"ip_address"`
}
