package v1alpha1

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Load reads a YAML or JSON configuration file, applies defaults and
// validates it. Unknown fields are rejected.
func Load(path string) (*HippoConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %q: %w", path, err)
	}
	return Decode(data)
}

// Decode parses, defaults and validates a configuration document.
func Decode(data []byte) (*HippoConfiguration, error) {
	cfg := &HippoConfiguration{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	SetDefaults_HippoConfiguration(cfg)
	if err := ValidateHippoConfiguration(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
