package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/venturelens/internal/models"
)

// SavedStore is the client-side list of saved analysis summaries, kept as a JSON file.
// Newest entries come first.
type SavedStore struct {
	path string
	mu   sync.Mutex
}

// NewSavedStore returns a store backed by path.
func NewSavedStore(path string) *SavedStore {
	return &SavedStore{path: path}
}

// List returns the saved summaries.
func (s *SavedStore) List() ([]*models.SavedAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Add stores a summary, replacing any entry with the same ID.
func (s *SavedStore) Add(a *models.SavedAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if err != nil {
		return err
	}
	out := []*models.SavedAnalysis{a}
	for _, it := range items {
		if it.ID != a.ID {
			out = append(out, it)
		}
	}
	return s.write(out)
}

// Delete removes the summary with id. It reports whether one was found.
func (s *SavedStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if err != nil {
		return false, err
	}
	out := items[:0]
	found := false
	for _, it := range items {
		if it.ID == id {
			found = true
			continue
		}
		out = append(out, it)
	}
	if !found {
		return false, nil
	}
	return true, s.write(out)
}

func (s *SavedStore) read() ([]*models.SavedAnalysis, error) {
	items := []*models.SavedAnalysis{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return items, nil
		}
		return nil, fmt.Errorf("read saved analyses: %w", err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse saved analyses: %w", err)
	}
	return items, nil
}

func (s *SavedStore) write(items []*models.SavedAnalysis) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create saved analyses directory: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
