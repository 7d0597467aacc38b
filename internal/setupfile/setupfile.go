// Package setupfile reads rubric and roster setups from TOML or JSON files.
// Both formats use the keys of the snapshot setup object.
package setupfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/noah-isme/rubric-grader-api/internal/grading"
	"github.com/noah-isme/rubric-grader-api/internal/models"
)

// Read decodes the file at path into a loosely typed document. The format is
// chosen by extension: .toml, otherwise JSON.
func Read(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("setup path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup: %w", err)
	}
	return Decode(data, filepath.Ext(path))
}

// Decode parses data as TOML when ext is ".toml" and as JSON otherwise.
func Decode(data []byte, ext string) (map[string]any, error) {
	doc := map[string]any{}
	if strings.EqualFold(ext, ".toml") {
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode toml setup: %w", err)
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode json setup: %w", err)
	}
	return doc, nil
}

// Load reads and normalises the setup at path.
func Load(path string) (models.Setup, error) {
	doc, err := Read(path)
	if err != nil {
		return models.Setup{}, err
	}
	return grading.NormalizeSetup(doc), nil
}
