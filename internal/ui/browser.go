package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/orb/internal/media"
)

// BrowserSelectedMsg carries the file or playlist the user picked.
type BrowserSelectedMsg struct {
	Path string
}

// BrowserCancelledMsg is sent when the browser is closed without a choice.
type BrowserCancelledMsg struct{}

type fileItem struct {
	name string
	ext  string
	dir  bool
}

func (i fileItem) Title() string {
	if i.dir {
		return i.name + "/"
	}
	return strings.TrimSuffix(i.name, i.ext)
}

func (i fileItem) Description() string {
	switch {
	case i.dir:
		return "folder"
	case media.IsPlaylistExt(i.ext):
		return "playlist " + i.ext
	default:
		return i.ext
	}
}

func (i fileItem) FilterValue() string { return i.name }

// BrowserModel picks tracks to add to the playlist.
type BrowserModel struct {
	list list.Model
	dir  string
	err  error
}

// NewBrowser lists dir: sub-folders first, then playable files and
// playlists.
func NewBrowser(dir string) BrowserModel {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	items, err := browserItems(abs)
	if err != nil {
		return BrowserModel{dir: abs, err: fmt.Errorf("cannot read directory: %w", err)}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, 80, 20)
	l.Title = "add to playlist: " + abs
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle

	return BrowserModel{list: l, dir: abs}
}

func browserItems(dir string) ([]list.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dirs, files []list.Item
	if filepath.Dir(dir) != dir {
		dirs = append(dirs, fileItem{name: "..", dir: true})
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, fileItem{name: e.Name(), dir: true})
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if media.IsSupportedExt(ext) || media.IsPlaylistExt(ext) {
			files = append(files, fileItem{name: e.Name(), ext: ext})
		}
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return dirs[i].(fileItem).name < dirs[j].(fileItem).name
	})
	return append(dirs, files...), nil
}

// Err returns the error from reading the directory, if any.
func (m BrowserModel) Err() error { return m.err }

// Dir returns the directory being listed.
func (m BrowserModel) Dir() string { return m.dir }

// SetSize fits the list to the window.
func (m *BrowserModel) SetSize(width, height int) {
	m.list.SetWidth(width)
	m.list.SetHeight(height)
}

func (m BrowserModel) Update(msg tea.Msg) (BrowserModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch key.String() {
		case "enter":
			item, ok := m.list.SelectedItem().(fileItem)
			if !ok {
				return m, nil
			}
			path := filepath.Join(m.dir, item.name)
			if item.dir {
				next := NewBrowser(path)
				next.list.SetWidth(m.list.Width())
				next.list.SetHeight(m.list.Height())
				return next, nil
			}
			return m, func() tea.Msg { return BrowserSelectedMsg{Path: path} }
		case "esc", "q":
			return m, func() tea.Msg { return BrowserCancelledMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) View() string {
	if m.err != nil {
		return "\n  " + errorStyle.Render(m.err.Error()) + "\n\n  " + helpStyle.Render("esc back") + "\n"
	}
	return m.list.View()
}
