package conf

import (
	"strings"

	"github.com/harunnryd/musubi/backend"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Registry is the declared backend registry plus call defaults, loaded from
// a YAML file with MUSUBI_-prefixed environment overrides on top.
type Registry struct {
	Defaults DefaultsConfig `koanf:"defaults"`
	Backends []BackendEntry `koanf:"backends"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
}

type DefaultsConfig struct {
	Backend  string         `koanf:"backend"`
	Model    string         `koanf:"model"`
	JSONMode bool           `koanf:"json_mode"`
	Params   map[string]any `koanf:"params"`
}

// BackendEntry configures one backend's transport.
type BackendEntry struct {
	Name    string `koanf:"name"`
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

const envPrefix = "MUSUBI_"

// Load reads the registry file and applies environment overrides.
// MUSUBI_DEFAULTS_MODEL=x maps onto defaults.model, matching the key scheme
// of the YAML file.
func Load(path string) (*Registry, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var reg Registry
	if err := k.Unmarshal("", &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func backendName(s string) backend.Name { return backend.Name(s) }

// Entry returns the registry entry for a backend name.
func (r *Registry) Entry(name string) (BackendEntry, bool) {
	for _, e := range r.Backends {
		if e.Name == name {
			return e, true
		}
	}
	return BackendEntry{}, false
}

// DefaultConfig converts the declared defaults into a CallConfig.
func (r *Registry) DefaultConfig() CallConfig {
	d := r.Defaults
	return CallConfig{
		Backend:  backendName(d.Backend),
		Model:    d.Model,
		JSONMode: d.JSONMode,
		Params:   copyParams(nil, d.Params),
	}
}
