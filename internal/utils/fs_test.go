package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindTextureFile(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "images", "texture-rain-bg.jpg"))
	touch(t, filepath.Join(root, "drop-alpha.png"))
	touch(t, filepath.Join(root, "drop-alpha.tex"))
	if err := os.MkdirAll(filepath.Join(root, "texture-rain-fg.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs := SearchDirs(root)
	tests := []struct {
		name string
		want string
	}{
		{"drop-alpha", filepath.Join(root, "drop-alpha.png")},
		{"texture-rain-bg", filepath.Join(root, "images", "texture-rain-bg.jpg")},
		{"materials/drop-alpha.tex", filepath.Join(root, "drop-alpha.tex")},
		{"texture-rain-fg", ""},
		{"missing", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FindTextureFile(dirs, tt.name); got != tt.want {
			t.Errorf("FindTextureFile(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
