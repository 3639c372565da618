// Package settings holds the user-editable analysis settings and their
// persistence boundary.
package settings

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notelens/internal/apperr"
	"github.com/starford/notelens/pkg/config"
)

// Supported models.
const (
	ModelChat  = "deepseek-chat"
	ModelCoder = "deepseek-coder"
)

// Analysis depths.
const (
	DepthBasic         = "basic"
	DepthDetailed      = "detailed"
	DepthComprehensive = "comprehensive"
)

// Settings is the flat record of analysis and view preferences.
type Settings struct {
	APIKey             string `yaml:"api_key" json:"api_key"`
	Model              string `yaml:"model" json:"model"`
	MaxLinkedNotes     int    `yaml:"max_linked_notes" json:"max_linked_notes"`
	IncludeSubfolders  bool   `yaml:"include_subfolders" json:"include_subfolders"`
	AnalysisDepth      string `yaml:"analysis_depth" json:"analysis_depth"`
	ShowGraphView      bool   `yaml:"show_graph_view" json:"show_graph_view"`
	GraphTheme         string `yaml:"graph_theme" json:"graph_theme"`
	GraphLayout        string `yaml:"graph_layout" json:"graph_layout"`
	EnableTagFilters   bool   `yaml:"enable_tag_filters" json:"enable_tag_filters"`
	EnableDateFilters  bool   `yaml:"enable_date_filters" json:"enable_date_filters"`
	EnableTypeFilters  bool   `yaml:"enable_type_filters" json:"enable_type_filters"`
	CreateAnalysisFile bool   `yaml:"create_analysis_file" json:"create_analysis_file"`
	AnalysisTemplate   string `yaml:"analysis_template" json:"analysis_template"`
}

// Defaults returns the settings used when nothing has been saved yet.
func Defaults() Settings {
	return Settings{
		Model:              ModelChat,
		MaxLinkedNotes:     5,
		AnalysisDepth:      DepthDetailed,
		ShowGraphView:      true,
		GraphTheme:         "system",
		GraphLayout:        "force",
		EnableTagFilters:   true,
		EnableDateFilters:  true,
		EnableTypeFilters:  true,
		CreateAnalysisFile: true,
		AnalysisTemplate:   "default",
	}
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Model, validation.Required, validation.In(ModelChat, ModelCoder)),
		validation.Field(&s.MaxLinkedNotes, validation.Min(1), validation.Max(20)),
		validation.Field(&s.AnalysisDepth, validation.Required, validation.In(DepthBasic, DepthDetailed, DepthComprehensive)),
		validation.Field(&s.GraphTheme, validation.Required, validation.In("light", "dark", "system")),
		validation.Field(&s.GraphLayout, validation.Required, validation.In("force", "circular", "hierarchical")),
	)
}

// HasCredential reports whether an API key is set.
func (s Settings) HasCredential() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// Masked returns a copy safe to display: all but the last four characters
// of the API key are replaced.
func (s Settings) Masked() Settings {
	key := strings.TrimSpace(s.APIKey)
	switch {
	case key == "":
	case len(key) <= 4:
		s.APIKey = strings.Repeat("*", len(key))
	default:
		s.APIKey = strings.Repeat("*", len(key)-4) + key[len(key)-4:]
	}
	return s
}

// Store loads and saves Settings as a YAML file. The last loaded or saved
// value is cached; Current returns a copy.
type Store struct {
	path        string
	envOverride string

	mu      sync.RWMutex
	current Settings
}

// NewStore returns a Store backed by path. A non-empty apiKeyOverride takes
// precedence over the stored key and is never written back.
func NewStore(path, apiKeyOverride string) *Store {
	return &Store{path: path, envOverride: apiKeyOverride, current: Defaults()}
}

// Path returns the settings file location.
func (st *Store) Path() string { return st.path }

// Load reads the settings file and merges it over Defaults. A missing file
// yields the defaults.
func (st *Store) Load() (Settings, error) {
	s := Defaults()
	if err := config.LoadOptional(st.path, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	st.mu.Lock()
	st.current = s
	st.mu.Unlock()
	return st.withOverride(s), nil
}

// Current returns the most recently loaded or saved settings.
func (st *Store) Current() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.withOverride(st.current)
}

// Stored returns the persisted settings without the environment override.
func (st *Store) Stored() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Save validates s and persists it.
func (st *Store) Save(s Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.save(s)
}

// save requires st.mu held for writing.
func (st *Store) save(s Settings) error {
	if err := config.Save(st.path, &s); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	st.current = s
	return nil
}

// Update applies fn to a copy of the stored settings and saves the result.
// The read, fn and the save happen under one lock, so concurrent updates
// are never lost. Nothing is kept when fn or the save fails.
func (st *Store) Update(fn func(s *Settings) error) (Settings, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.current
	if err := fn(&s); err != nil {
		return Settings{}, err
	}
	if err := st.save(s); err != nil {
		return Settings{}, err
	}
	return st.withOverride(s), nil
}

// Set updates a single field addressed by its YAML key and saves the result.
func (st *Store) Set(key, value string) (Settings, error) {
	return st.Update(func(s *Settings) error { return s.set(key, value) })
}

// Merge decodes a partial JSON document over the stored settings and saves
// it. An api_key equal to the masked form of the stored or the environment
// key leaves the stored key unchanged, so a masked value read back from
// Current().Masked() is never persisted.
func (st *Store) Merge(doc []byte) (Settings, error) {
	return st.Update(func(s *Settings) error {
		stored := s.APIKey
		if err := json.Unmarshal(doc, s); err != nil {
			return fmt.Errorf("settings: decode: %v: %w", err, apperr.ErrInvalid)
		}
		if s.APIKey != stored && st.isMaskedKey(s.APIKey, stored) {
			s.APIKey = stored
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("settings: %v: %w", err, apperr.ErrInvalid)
		}
		return nil
	})
}

func (st *Store) isMaskedKey(key, stored string) bool {
	if key == "" {
		return false
	}
	if key == (Settings{APIKey: stored}).Masked().APIKey {
		return true
	}
	return st.envOverride != "" && key == (Settings{APIKey: st.envOverride}).Masked().APIKey
}

func (st *Store) withOverride(s Settings) Settings {
	if st.envOverride != "" {
		s.APIKey = st.envOverride
	}
	return s
}
