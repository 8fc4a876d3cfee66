package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// decodeConfigYaml expands ${VAR} references and decodes blob into cfg,
// rejecting keys the config types do not declare.
func decodeConfigYaml(cfg *Config, blob []byte) error {
	expanded := os.ExpandEnv(string(blob))
	if len(bytes.TrimSpace([]byte(expanded))) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("can't parse yaml config: %w", err)
	}
	return nil
}
