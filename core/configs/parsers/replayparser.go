// Package parsers presents the parsing of configuration files and
// environment overrides, which will produce the configuration used by a
// replay run.
package parsers

import (
	"bytes"
	"errors"
	"io"
	"os"

	"surfpool-replay/core/configs"
	"surfpool-replay/core/configs/validators"

	"gopkg.in/yaml.v3"
)

// Parse the replay configuration file.
// This function both (a) reads the file from disk, and (b) calls the YAML
// to be parsed. An empty path gives the defaults.
func ParseReplayConfig(filePath string) (*configs.ReplayConfig, error) {
	if filePath == "" {
		return configs.Default(), nil
	}

	// Get the bytes of the file
	configFileBytes, err := os.ReadFile(filePath)

	if err != nil {
		return nil, err
	}

	return parseReplayYaml(configFileBytes)
}

// Parse the replay configuration in the YAML files.
// Values absent from the file keep their default, unknown keys are errors.
func parseReplayYaml(fileContents []byte) (*configs.ReplayConfig, error) {
	replayConfig := configs.Default()

	decoder := yaml.NewDecoder(bytes.NewReader(fileContents))
	decoder.KnownFields(true)

	err := decoder.Decode(replayConfig)

	// An empty document leaves the defaults untouched
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return replayConfig, nil
}

// Validate is a shorthand for the validator that only keeps the error.
func Validate(c *configs.ReplayConfig) error {
	if ok, err := validators.ValidateReplayConfig(c); !ok {
		return err
	}
	return nil
}
