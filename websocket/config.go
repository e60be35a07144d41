package websocket

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ReceiverConfig holds the operational tunables a deployment loads from
// disk to construct Receivers, loaded with gopkg.in/yaml.v3.
type ReceiverConfig struct {
	// MaxPayloadBytes caps the cumulative decoded payload per message; 0
	// means unbounded.
	MaxPayloadBytes int64 `yaml:"max_payload_bytes"`

	// Extensions lists the raw extension offer strings this deployment
	// accepts, e.g. "permessage-deflate; client_no_context_takeover". Keyed
	// by extension token so NewReceiver can look up
	// "permessage-deflate" directly.
	Extensions map[string]string `yaml:"extensions"`

	// ReadBufferSize sizes the transport-side read buffer the embedding
	// application allocates before calling Add; it is informational here
	// since the Receiver itself imposes no chunk-size requirement.
	ReadBufferSize int `yaml:"read_buffer_size"`
}

// LoadReceiverConfig reads and parses a ReceiverConfig from a YAML file at
// path.
func LoadReceiverConfig(path string) (*ReceiverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseReceiverConfig(data)
}

// ParseReceiverConfig parses a ReceiverConfig from YAML bytes, for callers
// that embed configuration rather than reading it from disk.
func ParseReceiverConfig(data []byte) (*ReceiverConfig, error) {
	cfg := &ReceiverConfig{ReadBufferSize: defaultReadBufferSize}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewReceiver constructs a Receiver using this config's MaxPayloadBytes and
// Extensions, wired to handlers.
func (cfg *ReceiverConfig) NewReceiver(handlers Handlers, opts ...ReceiverOption) *Receiver {
	return NewReceiver(cfg.Extensions, cfg.MaxPayloadBytes, handlers, opts...)
}
