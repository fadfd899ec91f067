package assets

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"rainfx/internal/utils"
)

// PkgEntry is one file inside a Wallpaper Engine .pkg archive.
type PkgEntry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Package is a read-only view of a .pkg archive. Entries are read in
// place; nothing is extracted to disk.
type Package struct {
	Version string

	r       io.ReaderAt
	closer  io.Closer
	base    int64
	entries map[string]PkgEntry
}

func readPkgString(r io.Reader) (string, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return "", err
	}
	if size > 1<<16 {
		return "", fmt.Errorf("assets: pkg string of %d bytes", size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// OpenPackage opens the archive at path.
func OpenPackage(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	p, err := ReadPackage(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("assets: %s: %w", path, err)
	}
	p.closer = f
	return p, nil
}

// ReadPackage parses the archive index from r.
func ReadPackage(r io.ReaderAt, size int64) (*Package, error) {
	sr := io.NewSectionReader(r, 0, size)

	version, err := readPkgString(sr)
	if err != nil {
		return nil, fmt.Errorf("pkg version: %w", err)
	}
	utils.Debug("Pkg: version %s", version)

	var count uint32
	if err := binary.Read(sr, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("pkg file count: %w", err)
	}

	entries := make(map[string]PkgEntry, count)
	for i := uint32(0); i < count; i++ {
		name, err := readPkgString(sr)
		if err != nil {
			return nil, fmt.Errorf("pkg entry %d: %w", i, err)
		}
		var loc [2]uint32
		if err := binary.Read(sr, binary.LittleEndian, &loc); err != nil {
			return nil, fmt.Errorf("pkg entry %s: %w", name, err)
		}
		entries[name] = PkgEntry{Name: name, Offset: loc[0], Size: loc[1]}
	}

	base, _ := sr.Seek(0, io.SeekCurrent)
	for _, e := range entries {
		if base+int64(e.Offset)+int64(e.Size) > size {
			return nil, fmt.Errorf("pkg entry %s runs past the end of the archive", e.Name)
		}
	}
	utils.Debug("Pkg: %d entries", len(entries))

	return &Package{Version: version, r: r, base: base, entries: entries}, nil
}

// Names lists the archive entries in sorted order.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.entries))
	for n := range p.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open returns a reader over the named entry.
func (p *Package) Open(name string) (io.Reader, bool) {
	e, ok := p.entries[name]
	if !ok {
		return nil, false
	}
	return io.NewSectionReader(p.r, p.base+int64(e.Offset), int64(e.Size)), true
}

// FindImage looks up an asset key the way LoadDir does on disk: at the
// archive root, then under images/ and materials/, with every known
// extension.
func (p *Package) FindImage(key string) (string, bool) {
	for _, dir := range []string{"", "images", "materials"} {
		for _, ext := range utils.ImageExtensions {
			name := path.Join(dir, key+ext)
			if _, ok := p.entries[name]; ok {
				return name, true
			}
		}
	}
	for _, name := range p.Names() {
		if strings.TrimSuffix(path.Base(name), path.Ext(name)) == key {
			return name, true
		}
	}
	return "", false
}

func (p *Package) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
