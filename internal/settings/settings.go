// Package settings loads the TOML settings file and keeps the live copy
// that the render loop reads every frame.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/olivier-w/orb/internal/analysis"
	"github.com/olivier-w/orb/internal/capture"
)

// Visual holds the look controls. The embedded multipliers feed the
// parameter smoother directly.
type Visual struct {
	analysis.Settings
	Palette       string `toml:"palette"`
	ShowStarfield bool   `toml:"show_starfield"`
}

// File is the full settings document.
type File struct {
	Visual     Visual              `toml:"visual"`
	Detector   analysis.Thresholds `toml:"detector"`
	Bands      analysis.BandLayout `toml:"bands"`
	Microphone capture.Config      `toml:"microphone"`
}

// Default returns the stock settings.
func Default() File {
	return File{
		Visual: Visual{
			Settings:      analysis.DefaultSettings(),
			Palette:       DefaultPalette,
			ShowStarfield: true,
		},
		Detector: analysis.DefaultThresholds(),
		Bands:    analysis.DefaultLayout,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/orb/settings.toml, or the
// platform's equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "orb", "settings.toml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
// Keys that match nothing are returned so the caller can warn about them.
func Load(path string) (File, []string, error) {
	f := Default()
	md, err := toml.DecodeFile(path, &f)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil, nil
	}
	if err != nil {
		return Default(), nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}
	return f, unknown, nil
}

// Save writes f to path, creating the parent directory.
func Save(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(f); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing settings %s: %w", path, err)
	}
	return nil
}

// Store is the live settings slot. Readers always see a complete File.
type Store struct {
	cell analysis.Cell[File]
}

// NewStore creates a store holding f.
func NewStore(f File) *Store {
	s := &Store{}
	s.cell.Store(f)
	return s
}

// Current returns the live settings.
func (s *Store) Current() File { return s.cell.Load() }

// Replace swaps in f.
func (s *Store) Replace(f File) { s.cell.Store(f) }

// Update applies fn to a copy of the live settings and stores the result.
// It is meant for a single writer such as the UI.
func (s *Store) Update(fn func(*File)) File {
	f := s.cell.Load()
	fn(&f)
	s.cell.Store(f)
	return f
}
