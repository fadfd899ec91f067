package assets

import (
	"fmt"
	"image"
	"sort"
	"strings"
)

// Asset keys. They double as base file names.
const (
	DropAlpha           = "drop-alpha"
	DropColor           = "drop-color"
	RainForeground      = "texture-rain-fg"
	RainBackground      = "texture-rain-bg"
	LightningForeground = "texture-storm-lightning-fg"
	LightningBackground = "texture-storm-lightning-bg"
	FalloutForeground   = "texture-fallout-fg"
	FalloutBackground   = "texture-fallout-bg"
	DrizzleForeground   = "texture-drizzle-fg"
	DrizzleBackground   = "texture-drizzle-bg"
	SunForeground       = "texture-sun-fg"
	SunBackground       = "texture-sun-bg"
	Shine               = "texture-shine"
)

var (
	Required = []string{DropAlpha, DropColor, RainForeground, RainBackground}
	Optional = []string{
		LightningForeground, LightningBackground,
		FalloutForeground, FalloutBackground,
		DrizzleForeground, DrizzleBackground,
		SunForeground, SunBackground,
		Shine,
	}
)

// Keys is every known asset key, required first.
func Keys() []string {
	return append(append([]string(nil), Required...), Optional...)
}

// MissingAssetError lists required assets that could not be found.
type MissingAssetError struct {
	Keys []string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("assets: missing required image(s): %s", strings.Join(e.Keys, ", "))
}

// Set maps asset keys to decoded images.
type Set map[string]image.Image

// Validate reports every missing required key.
func (s Set) Validate() error {
	var missing []string
	for _, k := range Required {
		if s[k] == nil {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &MissingAssetError{Keys: missing}
}
