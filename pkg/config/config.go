package config

import "time"

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel         string        // sets the log level (zap log level values)
	LogFormat        string        // text vs json
	ListenAddr       string        // UDP listen address for game telemetry
	ForwardPort      int           // UDP port to relay raw datagrams to (0 disables)
	RelayNatsURL     string        // NATS server URL for the raw packet relay (empty disables)
	RelayNatsSubject string        // NATS subject for the raw packet relay
	OutputDir        string        // directory for exported result documents
	AutoExport       bool          // export automatically when a terminal session ends
	DrainInterval    time.Duration // cadence at which the packet queue is drained
)
