package composition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/promoreel/internal/system"
)

// Parse decodes a YAML document. Unknown keys are rejected so that typos in
// hand-written compositions surface instead of silently defaulting.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse composition: %w", err)
	}
	return &doc, nil
}

// Read loads a composition document from a YAML file.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Write stores a document as YAML.
func Write(doc *Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// GeneratePath creates a timestamped composition filename inside dir.
func GeneratePath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("composition_%s.yaml", timestamp))
}

// FindLatest finds the most recently modified composition file in dir.
func FindLatest(dir string) (string, error) {
	path, err := system.FindLatest(dir, system.CompositionExtensions...)
	if err != nil {
		return "", fmt.Errorf("failed to find a composition: %w", err)
	}
	return path, nil
}
