package weather

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"rainfx/internal/utils"
)

var ErrUnknownPreset = errors.New("weather: unknown preset")

const (
	Rain    = "rain"
	Storm   = "storm"
	Fallout = "fallout"
	Drizzle = "drizzle"
	Sunny   = "sunny"
)

// Images are the decoded textures the catalog points presets at. Only the
// rain pair is required; a missing optional pair falls back to rain.
type Images struct {
	RainForeground      image.Image
	RainBackground      image.Image
	LightningForeground image.Image
	LightningBackground image.Image
	FalloutForeground   image.Image
	FalloutBackground   image.Image
	DrizzleForeground   image.Image
	DrizzleBackground   image.Image
	SunForeground       image.Image
	SunBackground       image.Image
}

type Catalog struct {
	presets map[string]Preset
	names   []string
}

func pair(name string, fg, bg, fallbackFg, fallbackBg image.Image) (image.Image, image.Image) {
	if fg != nil && bg != nil {
		return fg, bg
	}
	utils.Warn("Weather: %s textures missing, using rain textures", name)
	return fallbackFg, fallbackBg
}

// NewCatalog builds the five stock presets.
func NewCatalog(img Images) *Catalog {
	base := Defaults()
	base.Foreground = img.RainForeground
	base.Background = img.RainBackground

	falloutFg, falloutBg := pair(Fallout, img.FalloutForeground, img.FalloutBackground, img.RainForeground, img.RainBackground)
	drizzleFg, drizzleBg := pair(Drizzle, img.DrizzleForeground, img.DrizzleBackground, img.RainForeground, img.RainBackground)
	sunFg, sunBg := pair(Sunny, img.SunForeground, img.SunBackground, img.RainForeground, img.RainBackground)

	return NewCatalogFrom(base, []NamedOverrides{
		{Rain, Overrides{
			RainChance:   Ptr(0.35),
			DropletsRate: Ptr(50.0),
			Raining:      Ptr(true),
		}},
		{Storm, Overrides{
			MaxRadius:       Ptr(55.0),
			RainChance:      Ptr(0.4),
			DropletsRate:    Ptr(80.0),
			DropletsSize:    Ptr([2]float64{3, 5.5}),
			TrailRate:       Ptr(2.5),
			TrailScaleRange: Ptr([2]float64{0.25, 0.4}),
			FlashForeground: img.LightningForeground,
			FlashBackground: img.LightningBackground,
			FlashChance:     Ptr(0.1),
		}},
		{Fallout, Overrides{
			MinRadius:               Ptr(30.0),
			MaxRadius:               Ptr(60.0),
			RainChance:              Ptr(0.35),
			DropletsRate:            Ptr(20.0),
			TrailRate:               Ptr(4.0),
			Foreground:              falloutFg,
			Background:              falloutBg,
			CollisionRadiusIncrease: Ptr(0.0),
		}},
		{Drizzle, Overrides{
			MinRadius:    Ptr(10.0),
			MaxRadius:    Ptr(40.0),
			RainChance:   Ptr(0.15),
			RainLimit:    Ptr(2),
			DropletsRate: Ptr(10.0),
			DropletsSize: Ptr([2]float64{3.5, 6}),
			Foreground:   drizzleFg,
			Background:   drizzleBg,
		}},
		{Sunny, Overrides{
			RainChance:   Ptr(0.0),
			RainLimit:    Ptr(0),
			DropletsRate: Ptr(0.0),
			Raining:      Ptr(false),
			Foreground:   sunFg,
			Background:   sunBg,
		}},
	})
}

type NamedOverrides struct {
	Name      string
	Overrides Overrides
}

// NewCatalogFrom builds a catalog from explicit overrides, in order.
func NewCatalogFrom(base Preset, entries []NamedOverrides) *Catalog {
	c := &Catalog{presets: make(map[string]Preset, len(entries))}
	for _, e := range entries {
		if _, dup := c.presets[e.Name]; !dup {
			c.names = append(c.names, e.Name)
		}
		c.presets[e.Name] = Build(e.Name, base, e.Overrides)
	}
	return c
}

func (c *Catalog) Lookup(name string) (Preset, error) {
	p, ok := c.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w %q (have %s)", ErrUnknownPreset, name, strings.Join(c.names, ", "))
	}
	return p, nil
}

// Names lists presets in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}
