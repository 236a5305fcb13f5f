package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/flow"
)

// WriteYAML renders a description as YAML.
func WriteYAML(w io.Writer, d *flow.Description) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode description: %w", err)
	}
	return enc.Close()
}

// ReadYAML parses a description written by WriteYAML.
func ReadYAML(r io.Reader) (*flow.Description, error) {
	var d flow.Description
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	return &d, nil
}

func marshalSnapshot(s core.Snapshot) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", s.RunID, err)
	}
	return data, nil
}

func unmarshalSnapshot(data []byte) (core.Snapshot, error) {
	var s core.Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
