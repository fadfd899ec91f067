package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"rainfx/internal/utils"
)

// Decode picks a decoder from the file name: .tex goes through DecodeTex,
// everything else through the registered image formats.
func Decode(name string, r io.Reader) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(name), ".tex") {
		return DecodeTex(r)
	}
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", name, err)
	}
	utils.Debug("Assets: decoded %s as %s", name, format)
	return img, nil
}

// DecodeFile opens and decodes one image file.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(path, f)
}

// opener resolves an asset key to a name and a reader over its bytes.
type opener func(key string) (name string, open func() (io.ReadCloser, error), ok bool)

const maxConcurrentDecodes = 4

// load decodes every known key in parallel. Missing or undecodable
// required keys end up in a MissingAssetError; optional ones are skipped
// with a warning.
func load(find opener) (Set, error) {
	keys := Keys()
	images := make([]image.Image, len(keys))
	errs := make([]error, len(keys))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentDecodes)
	for i, key := range keys {
		name, open, ok := find(key)
		if !ok {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			rc, err := open()
			if err != nil {
				errs[i] = err
				return
			}
			defer rc.Close()
			images[i], errs[i] = Decode(name, rc)
		}()
	}
	wg.Wait()

	set := make(Set, len(keys))
	for i, key := range keys {
		if errs[i] != nil {
			utils.Warn("Assets: %s: %v", key, errs[i])
			continue
		}
		if images[i] != nil {
			set[key] = images[i]
		}
	}
	utils.Info("Assets: loaded %d of %d images", len(set), len(keys))

	if err := set.Validate(); err != nil {
		return set, err
	}
	return set, nil
}

// LoadDir loads the asset set from a directory tree.
func LoadDir(root string) (Set, error) {
	dirs := utils.SearchDirs(root)
	return load(func(key string) (string, func() (io.ReadCloser, error), bool) {
		p := utils.FindTextureFile(dirs, key)
		if p == "" {
			return "", nil, false
		}
		return p, func() (io.ReadCloser, error) { return os.Open(p) }, true
	})
}

// LoadPackage loads the asset set from a .pkg archive.
func LoadPackage(pkg *Package) (Set, error) {
	return load(func(key string) (string, func() (io.ReadCloser, error), bool) {
		name, ok := pkg.FindImage(key)
		if !ok {
			return "", nil, false
		}
		return name, packageEntry(pkg, name), true
	})
}

func packageEntry(pkg *Package, name string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		r, ok := pkg.Open(name)
		if !ok {
			return nil, fmt.Errorf("%s: not in package", name)
		}
		return io.NopCloser(r), nil
	}
}

// Load reads assets from a directory or, when path names a file, from a
// .pkg archive.
func Load(path string) (Set, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	pkg, err := OpenPackage(path)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()
	return LoadPackage(pkg)
}
