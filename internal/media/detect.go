package media

import (
	"slices"
	"strings"
)

var audioExts = []string{".mp3", ".wav", ".flac", ".ogg", ".oga"}

var playlistExts = []string{".m3u", ".m3u8", ".pls"}

// IsSupportedExt returns true if the extension is a playable audio format.
func IsSupportedExt(ext string) bool {
	return slices.Contains(audioExts, strings.ToLower(ext))
}

// IsPlaylistExt returns true if the extension is a supported playlist format.
func IsPlaylistExt(ext string) bool {
	return slices.Contains(playlistExts, strings.ToLower(ext))
}

// SupportedExtsList returns a human-readable list of playable formats.
func SupportedExtsList() string {
	return strings.Join(audioExts, ", ")
}
