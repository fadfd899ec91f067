package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"rainfx/internal/assets"
	"rainfx/internal/utils"
)

func loadAssets(path string) (assets.Set, error) {
	set, err := assets.Load(path)
	if err != nil {
		return nil, err
	}
	for _, key := range assets.Optional {
		if set[key] == nil {
			utils.Debug("Optional asset %s not found", key)
		}
	}
	return set, nil
}

// runDecode converts one .tex file to a PNG next to it.
func runDecode(texPath string) error {
	utils.Info("Decoding: %s", texPath)
	img, err := assets.DecodeFile(texPath)
	if err != nil {
		return err
	}

	outPath := strings.TrimSuffix(texPath, filepath.Ext(texPath)) + ".png"
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(outPath)
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	b := img.Bounds()
	utils.Info("Decoded %dx%d image to %s", b.Dx(), b.Dy(), outPath)
	return nil
}
