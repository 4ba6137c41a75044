package media

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Entry is one playable file found on the command line or in a playlist.
type Entry struct {
	Path  string
	Title string // from the playlist, if it named one
}

// ParseLocalPlaylist parses a local .m3u/.m3u8/.pls file. Relative entries
// are resolved against the playlist's directory; URLs are skipped.
func ParseLocalPlaylist(path string) ([]Entry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsPlaylistExt(ext) {
		return nil, fmt.Errorf("unsupported playlist format %s", ext)
	}

	absPlaylistPath, err := filepath.Abs(path)
	if err != nil {
		absPlaylistPath = path
	}

	data, err := os.ReadFile(absPlaylistPath)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("playlist is not valid UTF-8")
	}

	baseDir := filepath.Dir(absPlaylistPath)
	scanner := bufio.NewScanner(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))

	switch ext {
	case ".pls":
		return parsePLS(scanner, baseDir), nil
	default:
		return parseM3U(scanner, baseDir), nil
	}
}

// Expand turns command-line arguments into playable entries. Directories
// contribute their supported files in name order, playlists their entries.
// Arguments that cannot be used are reported and skipped.
func Expand(args []string) ([]Entry, []error) {
	var (
		out  []Entry
		errs []error
	)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		switch {
		case info.IsDir():
			err := filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && IsSupportedExt(filepath.Ext(p)) {
					out = append(out, Entry{Path: absPath(p)})
				}
				return nil
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("scanning %s: %w", arg, err))
			}
		case IsPlaylistExt(filepath.Ext(arg)):
			entries, err := ParseLocalPlaylist(arg)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", arg, err))
				continue
			}
			out = append(out, FilterPlayable(entries)...)
		case IsSupportedExt(filepath.Ext(arg)):
			out = append(out, Entry{Path: absPath(arg)})
		default:
			errs = append(errs, fmt.Errorf("%s: unsupported format (supported: %s)", arg, SupportedExtsList()))
		}
	}
	return out, errs
}

// FilterPlayable keeps only existing, non-directory, supported media files.
func FilterPlayable(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		info, err := os.Stat(e.Path)
		if err != nil || info.IsDir() {
			continue
		}
		if !IsSupportedExt(filepath.Ext(e.Path)) {
			continue
		}
		e.Path = absPath(e.Path)
		out = append(out, e)
	}
	return out
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func isURL(s string) bool {
	return strings.Contains(s, "://")
}

func parseM3U(scanner *bufio.Scanner, baseDir string) []Entry {
	entries := make([]Entry, 0)
	var title string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "#EXTINF:"); ok {
			if _, t, found := strings.Cut(rest, ","); found {
				title = strings.TrimSpace(t)
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.Trim(line, `"`)
		if !isURL(line) {
			entries = append(entries, Entry{Path: resolvePlaylistEntryPath(line, baseDir), Title: title})
		}
		title = ""
	}
	return entries
}

func parsePLS(scanner *bufio.Scanner, baseDir string) []Entry {
	files := map[int]string{}
	titles := map[int]string{}
	var order []int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if val == "" {
			continue
		}
		if n, ok := plsIndex(key, "File"); ok {
			if isURL(val) {
				continue
			}
			if _, seen := files[n]; !seen {
				order = append(order, n)
			}
			files[n] = resolvePlaylistEntryPath(val, baseDir)
		} else if n, ok := plsIndex(key, "Title"); ok {
			titles[n] = val
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, n := range order {
		entries = append(entries, Entry{Path: files[n], Title: titles[n]})
	}
	return entries
}

// plsIndex parses keys such as File3 (case-insensitive prefix).
func plsIndex(key, prefix string) (int, bool) {
	if len(key) <= len(prefix) || !strings.EqualFold(key[:len(prefix)], prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(key[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func resolvePlaylistEntryPath(raw, baseDir string) string {
	p := filepath.Clean(raw)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}
