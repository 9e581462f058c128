// SPDX-License-Identifier: Apache-2.0

// Package format reads and writes the document files canopy exchanges with
// the planning engine: plans, change-set exports, workspace and state files.
// YAML is the preferred format; JSON is accepted for engine exports.
package format

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile reads filePath and decodes it into v, trying YAML first and
// falling back to JSON.
func ParseFile(filePath string, v interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	return ParseData(data, v)
}

// ParseData decodes data into v, trying YAML first and falling back to JSON.
func ParseData(data []byte, v interface{}) error {
	yamlErr := yaml.Unmarshal(data, v)
	if yamlErr == nil {
		return nil
	}

	if jsonErr := json.Unmarshal(data, v); jsonErr == nil {
		return nil
	}

	return fmt.Errorf("failed to parse as YAML: %w", yamlErr)
}

// WriteFile encodes v and writes it to filePath. The encoding follows the
// file extension; YAML is the default for unknown or missing extensions.
func WriteFile(filePath string, v interface{}) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		data, err = json.MarshalIndent(v, "", "  ")
	default:
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("error marshaling data: %w", err)
	}

	return os.WriteFile(filePath, data, 0644)
}
