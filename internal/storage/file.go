package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// FileRegistry keeps registrations in a JSON file, saved on every Register.
type FileRegistry struct {
	filePath string
	ttlHours int
	items    map[string]Registration
	mu       sync.RWMutex
}

// NewFileRegistry loads filePath (a missing file is an empty registry).
func NewFileRegistry(filePath string, ttlHours int) (*FileRegistry, error) {
	fr := &FileRegistry{
		filePath: filePath,
		ttlHours: ttlHours,
		items:    make(map[string]Registration),
	}
	if err := fr.Load(); err != nil {
		return nil, err
	}
	return fr, nil
}

// Load reads the file, dropping expired registrations.
func (fr *FileRegistry) Load() error {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	data, err := os.ReadFile(fr.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read registry file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []Registration
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal registry: %w", err)
	}

	cut := cutoff(time.Now(), fr.ttlHours)
	for _, item := range items {
		if item.RegisteredAt.After(cut) {
			fr.items[item.URI] = item
		}
	}
	return nil
}

// Save writes all registrations, oldest first.
func (fr *FileRegistry) Save() error {
	fr.mu.RLock()
	items := make([]Registration, 0, len(fr.items))
	for _, item := range fr.items {
		items = append(items, item)
	}
	fr.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].RegisteredAt.Equal(items[j].RegisteredAt) {
			return items[i].URI < items[j].URI
		}
		return items[i].RegisteredAt.Before(items[j].RegisteredAt)
	})

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	tmp := fr.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if err := os.Rename(tmp, fr.filePath); err != nil {
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}

func (fr *FileRegistry) CheckRegistered(_ context.Context, uris []string) (map[string]bool, error) {
	fr.mu.RLock()
	defer fr.mu.RUnlock()

	cut := cutoff(time.Now(), fr.ttlHours)
	out := make(map[string]bool, len(uris))
	for _, uri := range uris {
		item, ok := fr.items[uri]
		out[uri] = ok && item.RegisteredAt.After(cut)
	}
	return out, nil
}

func (fr *FileRegistry) Register(_ context.Context, uri string) (bool, error) {
	now := time.Now()

	fr.mu.Lock()
	item, ok := fr.items[uri]
	if ok && item.RegisteredAt.After(cutoff(now, fr.ttlHours)) {
		fr.mu.Unlock()
		return true, nil
	}
	fr.items[uri] = Registration{URI: uri, RegisteredAt: now}
	fr.mu.Unlock()

	return false, fr.Save()
}

// Len returns the number of registrations held.
func (fr *FileRegistry) Len() int {
	fr.mu.RLock()
	defer fr.mu.RUnlock()
	return len(fr.items)
}
