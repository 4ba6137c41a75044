package media

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseLocalPlaylistM3U(t *testing.T) {
	dir := t.TempDir()
	playlist := filepath.Join(dir, "list.m3u")
	content := "\ufeff#EXTM3U\n\n#EXTINF:123,Artist - One\nsong1.mp3\n#comment\n\"https://example.com/stream\"\nsub/song2.wav\n"
	if err := os.WriteFile(playlist, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	got, err := ParseLocalPlaylist(playlist)
	if err != nil {
		t.Fatalf("ParseLocalPlaylist() error = %v", err)
	}

	want := []Entry{
		{Path: filepath.Join(dir, "song1.mp3"), Title: "Artist - One"},
		{Path: filepath.Join(dir, "sub", "song2.wav")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseLocalPlaylist() = %#v, want %#v", got, want)
	}
}

func TestParseLocalPlaylistPLS(t *testing.T) {
	dir := t.TempDir()
	playlist := filepath.Join(dir, "list.pls")
	content := "[playlist]\n file1 = one.flac \nTitle1=One\nLength1=120\nFile2=https://example.com/live\nFileX=bad.mp3\nFile3=\nFile4=/abs/four.ogg\n"
	if err := os.WriteFile(playlist, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	got, err := ParseLocalPlaylist(playlist)
	if err != nil {
		t.Fatalf("ParseLocalPlaylist() error = %v", err)
	}

	want := []Entry{
		{Path: filepath.Join(dir, "one.flac"), Title: "One"},
		{Path: filepath.Clean("/abs/four.ogg")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseLocalPlaylist() = %#v, want %#v", got, want)
	}
}

func TestParseLocalPlaylistRejectsUnknownExt(t *testing.T) {
	if _, err := ParseLocalPlaylist("list.txt"); err == nil {
		t.Fatal("expected error for non-playlist extension")
	}
}

func TestExpandMixesFilesDirsAndPlaylists(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	single := write("single.mp3")
	write("album/02.flac")
	write("album/01.wav")
	write("album/cover.jpg")
	listed := write("listed.ogg")
	list := filepath.Join(dir, "mix.m3u")
	if err := os.WriteFile(list, []byte("listed.ogg\nmissing.mp3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, errs := Expand([]string{single, filepath.Join(dir, "album"), list, filepath.Join(dir, "nope.mp3"), filepath.Join(dir, "album", "cover.jpg")})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors (missing file, unsupported), got %v", errs)
	}

	var paths []string
	for _, e := range got {
		paths = append(paths, e.Path)
	}
	want := []string{
		single,
		filepath.Join(dir, "album", "01.wav"),
		filepath.Join(dir, "album", "02.flac"),
		listed,
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
}
