// Package theme owns the process-wide light/dark display mode.
package theme

import (
	"errors"
	"fmt"
	"sync"

	"github.com/newsdailly/newsdailly/config"
)

// Mode is a display theme.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// PreferenceKey is the preference under which the mode is persisted.
const PreferenceKey = "theme"

// ParseMode validates s.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Light, Dark:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid theme %q: must be light or dark", s)
}

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Preferences persists the mode. config.PreferenceStore satisfies it.
type Preferences interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// State is the single owner of the current mode. Toggle and Set are the
// only ways to change it.
type State struct {
	mu    sync.RWMutex
	mode  Mode
	prefs Preferences
}

// Init reads the persisted mode from prefs, falling back to def when none is
// stored or the stored value is not a valid mode. A nil prefs keeps the mode
// in memory only.
func Init(prefs Preferences, def Mode) (*State, error) {
	if _, err := ParseMode(string(def)); err != nil {
		return nil, err
	}

	s := &State{mode: def, prefs: prefs}
	if prefs == nil {
		return s, nil
	}

	stored, err := prefs.Get(PreferenceKey)
	if errors.Is(err, config.ErrPreferenceNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read theme preference: %w", err)
	}
	if mode, err := ParseMode(stored); err == nil {
		s.mode = mode
	}
	return s, nil
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Toggle flips the mode and returns the new one.
func (s *State) Toggle() (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.mode.Opposite()
	if err := s.persistLocked(next); err != nil {
		return s.mode, err
	}
	s.mode = next
	return next, nil
}

// Set changes the mode. The mode only changes once it has been persisted.
func (s *State) Set(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistLocked(mode); err != nil {
		return err
	}
	s.mode = mode
	return nil
}

func (s *State) persistLocked(mode Mode) error {
	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.Set(PreferenceKey, string(mode)); err != nil {
		return fmt.Errorf("failed to save theme preference: %w", err)
	}
	return nil
}
