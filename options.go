package crolangp2p

import "github.com/crolang-p2p/crolang-p2p-node-sub000/internal/broker"

// Config is the tunable subset of §6.5's configuration surface. Values not
// exposed here (payload_chunk_bytes, max_buffered_amount) are internal
// constants (internal/framing) the spec marks non-configurable.
type Config struct {
	p2pConnectionTimeoutMs int
	multipartMsgTimeoutMs  int

	reconnection            bool
	maxReconnectionAttempts int // 0 means unbounded
	reconnectionDeltaMs     int

	logEnableBase  bool
	logEnableDebug bool

	runtime string
}

// Option configures a Client at construction time.
type Option func(*Config)

// defaultConfig returns the configuration §6.5 specifies as defaults.
func defaultConfig() Config {
	return Config{
		p2pConnectionTimeoutMs: 30_000,
		multipartMsgTimeoutMs:  60_000,
		reconnection:           true,
		reconnectionDeltaMs:    2_000,
		runtime:                "go",
	}
}

// WithP2PConnectionTimeout overrides the per-Node negotiation timeout
// (default 30,000 ms).
func WithP2PConnectionTimeout(ms int) Option {
	return func(c *Config) { c.p2pConnectionTimeoutMs = ms }
}

// WithMultipartMsgTimeout overrides the inbound reassembly timeout
// (default 60,000 ms).
func WithMultipartMsgTimeout(ms int) Option {
	return func(c *Config) { c.multipartMsgTimeoutMs = ms }
}

// WithReconnection enables or disables broker reconnection (default true).
func WithReconnection(enabled bool) Option {
	return func(c *Config) { c.reconnection = enabled }
}

// WithMaxReconnectionAttempts bounds reconnection attempts. 0 (the
// default) means unbounded.
func WithMaxReconnectionAttempts(n int) Option {
	return func(c *Config) { c.maxReconnectionAttempts = n }
}

// WithReconnectionDelta overrides the delay between reconnection attempts
// (default 2,000 ms).
func WithReconnectionDelta(ms int) Option {
	return func(c *Config) { c.reconnectionDeltaMs = ms }
}

// WithLogging enables base (info/success/warning) and debug logging
// independently (both default false).
func WithLogging(enableBase, enableDebug bool) Option {
	return func(c *Config) {
		c.logEnableBase = enableBase
		c.logEnableDebug = enableDebug
	}
}

// WithRuntimeTag overrides the informational platform tag sent at connect
// time (§6.4); defaults to "go".
func WithRuntimeTag(runtime string) Option {
	return func(c *Config) { c.runtime = runtime }
}

func (c Config) brokerSettings() broker.Settings {
	return broker.Settings{
		Reconnection:            c.reconnection,
		MaxReconnectionAttempts: c.maxReconnectionAttempts,
		ReconnectionDeltaMs:     c.reconnectionDeltaMs,
	}
}
