// Package modelstore persists trained classifier artifacts.
package modelstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emrekiracbedel/keystyleid/internal/forest"
)

// ErrModelNotFound indicates no training run has produced a model yet.
var ErrModelNotFound = errors.New("no trained model found")

const (
	modelFile        = "model.json"
	featureOrderFile = "feature_order.json"
)

// Store reads and writes model artifacts in a directory. Each training run
// replaces both artifacts wholesale; writes are atomic so a reader never
// observes a partial file.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// ModelPath returns the path of the persisted classifier.
func (s *Store) ModelPath() string {
	return filepath.Join(s.dir, modelFile)
}

// FeatureOrderPath returns the path of the persisted feature-name list.
func (s *Store) FeatureOrderPath() string {
	return filepath.Join(s.dir, featureOrderFile)
}

// Save replaces the persisted classifier and feature order.
func (s *Store) Save(f *forest.Forest, featureOrder []string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts dir: %w", err)
	}
	if err := writeJSON(s.ModelPath(), f); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := writeJSON(s.FeatureOrderPath(), featureOrder); err != nil {
		return fmt.Errorf("failed to write feature order: %w", err)
	}
	return nil
}

// LoadForest reads the persisted classifier. Returns ErrModelNotFound if
// no model has been saved.
func (s *Store) LoadForest() (*forest.Forest, error) {
	var f forest.Forest
	if err := readJSON(s.ModelPath(), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFeatureOrder reads the persisted feature-name list.
func (s *Store) LoadFeatureOrder() ([]string, error) {
	var order []string
	if err := readJSON(s.FeatureOrderPath(), &order); err != nil {
		return nil, err
	}
	return order, nil
}

func writeJSON(path string, v any) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "artifact-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	enc := json.NewEncoder(tmpFile)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrModelNotFound
		}
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
