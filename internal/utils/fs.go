package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ImageExtensions is the lookup order when an asset is named without one.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".tex"}

// FindTextureFile looks for name in each search directory, trying it as
// given and then with every known image extension. It returns "" when
// nothing matches.
func FindTextureFile(searchDirs []string, name string) string {
	if name == "" {
		return ""
	}

	cleanName := strings.TrimPrefix(name, "materials/")
	ext := filepath.Ext(cleanName)

	for _, dir := range searchDirs {
		if ext != "" {
			p := filepath.Join(dir, cleanName)
			if isFile(p) {
				return p
			}
			continue
		}
		for _, e := range ImageExtensions {
			p := filepath.Join(dir, cleanName+e)
			if isFile(p) {
				return p
			}
		}
	}
	return ""
}

// SearchDirs expands an asset root into the directories scanned for images.
func SearchDirs(root string) []string {
	return []string{
		root,
		filepath.Join(root, "images"),
		filepath.Join(root, "materials"),
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
