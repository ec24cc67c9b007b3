package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// readPayload reads a nested entity payload from path, or from stdin when
// path is "-". Files ending in .json are parsed as JSON; everything else,
// stdin included, as YAML, which also accepts most JSON.
func readPayload(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	var payload map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to parse JSON payload: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse YAML payload: %w", err)
		}
	}

	if payload == nil {
		return nil, fmt.Errorf("payload %s is empty", path)
	}
	return payload, nil
}
