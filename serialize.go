package kaiku

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ReadMix parses a mix from r, trying JSON first and YAML second. The
// returned mix is not finalized; sample events carry only their paths.
func ReadMix(r io.Reader) (Mix, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Mix{}, fmt.Errorf("cannot read mix: %w", err)
	}
	var m Mix
	if errJSON := json.Unmarshal(b, &m); errJSON != nil {
		if errYaml := yaml.Unmarshal(b, &m); errYaml != nil {
			return Mix{}, fmt.Errorf("cannot parse mix: %v / %v", errYaml, errJSON)
		}
	}
	return m, nil
}

// LoadMix reads a mix from a file.
func LoadMix(path string) (Mix, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mix{}, fmt.Errorf("cannot open mix file: %w", err)
	}
	defer f.Close()
	return ReadMix(f)
}

// Write marshals the mix as YAML to w.
func (m *Mix) Write(w io.Writer) error {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("cannot marshal mix: %w", err)
	}
	if _, err := w.Write(contents); err != nil {
		return fmt.Errorf("cannot write mix: %w", err)
	}
	return nil
}

// Save writes the mix to a file, as JSON when the path ends in ".json" and
// as YAML otherwise.
func (m *Mix) Save(path string) error {
	var contents []byte
	var err error
	if filepath.Ext(path) == ".json" {
		contents, err = json.Marshal(m)
	} else {
		contents, err = yaml.Marshal(m)
	}
	if err != nil {
		return fmt.Errorf("cannot marshal mix: %w", err)
	}
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("cannot write mix file: %w", err)
	}
	return nil
}
