package weather

import (
	"image"

	"rainfx/internal/raindrops"
)

// Preset is a fully populated weather description. Presets are values:
// the catalog hands out copies and nothing mutates them afterwards.
type Preset struct {
	Name string

	Raining                          bool
	MinRadius                        float64
	MaxRadius                        float64
	RainChance                       float64
	RainLimit                        int
	DropletsRate                     float64
	DropletsSize                     [2]float64
	TrailRate                        float64
	TrailScaleRange                  [2]float64
	CollisionRadius                  float64
	CollisionRadiusIncrease          float64
	DropletsCleaningRadiusMultiplier float64

	Foreground      image.Image
	Background      image.Image
	FlashForeground image.Image
	FlashBackground image.Image
	FlashChance     float64
}

// Defaults is the base every preset is built on.
func Defaults() Preset {
	return Preset{
		Raining:                          true,
		MinRadius:                        20,
		MaxRadius:                        50,
		RainChance:                       0.35,
		RainLimit:                        6,
		DropletsRate:                     50,
		DropletsSize:                     [2]float64{3, 5.5},
		TrailRate:                        1,
		TrailScaleRange:                  [2]float64{0.25, 0.35},
		CollisionRadius:                  0.45,
		CollisionRadiusIncrease:          0.0002,
		DropletsCleaningRadiusMultiplier: 0.28,
		FlashChance:                      0,
	}
}

// Overrides lists the fields a preset changes. Nil fields keep the
// default.
type Overrides struct {
	Raining                          *bool
	MinRadius                        *float64
	MaxRadius                        *float64
	RainChance                       *float64
	RainLimit                        *int
	DropletsRate                     *float64
	DropletsSize                     *[2]float64
	TrailRate                        *float64
	TrailScaleRange                  *[2]float64
	CollisionRadius                  *float64
	CollisionRadiusIncrease          *float64
	DropletsCleaningRadiusMultiplier *float64

	Foreground      image.Image
	Background      image.Image
	FlashForeground image.Image
	FlashBackground image.Image
	FlashChance     *float64
}

// Ptr returns a pointer to v, for filling Overrides.
func Ptr[T any](v T) *T { return &v }

// Build overlays o onto base.
func Build(name string, base Preset, o Overrides) Preset {
	p := base
	p.Name = name

	set(&p.Raining, o.Raining)
	set(&p.MinRadius, o.MinRadius)
	set(&p.MaxRadius, o.MaxRadius)
	set(&p.RainChance, o.RainChance)
	set(&p.RainLimit, o.RainLimit)
	set(&p.DropletsRate, o.DropletsRate)
	set(&p.DropletsSize, o.DropletsSize)
	set(&p.TrailRate, o.TrailRate)
	set(&p.TrailScaleRange, o.TrailScaleRange)
	set(&p.CollisionRadius, o.CollisionRadius)
	set(&p.CollisionRadiusIncrease, o.CollisionRadiusIncrease)
	set(&p.DropletsCleaningRadiusMultiplier, o.DropletsCleaningRadiusMultiplier)
	set(&p.FlashChance, o.FlashChance)

	if o.Foreground != nil {
		p.Foreground = o.Foreground
	}
	if o.Background != nil {
		p.Background = o.Background
	}
	if o.FlashForeground != nil {
		p.FlashForeground = o.FlashForeground
	}
	if o.FlashBackground != nil {
		p.FlashBackground = o.FlashBackground
	}
	return p
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// CanFlash reports whether lightning is possible for the preset.
func (p Preset) CanFlash() bool {
	return p.FlashChance > 0 && p.FlashForeground != nil && p.FlashBackground != nil
}

// DropletParams is the part of the preset the droplet simulation uses.
func (p Preset) DropletParams() raindrops.Params {
	return raindrops.Params{
		Raining:                          p.Raining,
		MinR:                             p.MinRadius,
		MaxR:                             p.MaxRadius,
		RainChance:                       p.RainChance,
		RainLimit:                        p.RainLimit,
		DropletsRate:                     p.DropletsRate,
		DropletsSize:                     p.DropletsSize,
		TrailRate:                        p.TrailRate,
		TrailScaleRange:                  p.TrailScaleRange,
		CollisionRadius:                  p.CollisionRadius,
		CollisionRadiusIncrease:          p.CollisionRadiusIncrease,
		DropletsCleaningRadiusMultiplier: p.DropletsCleaningRadiusMultiplier,
	}
}
