package raindrops

import (
	"image"
	"time"
)

// Source produces the droplet texture the renderer refracts through.
type Source interface {
	Image() image.Image
	Update(dt time.Duration)
	Reset()
	Configure(Params)
}

// Params tune the simulation. Radii are in simulation pixels; rates are
// per 60 Hz tick.
type Params struct {
	Raining                          bool
	MinR                             float64
	MaxR                             float64
	RainChance                       float64
	RainLimit                        int
	DropletsRate                     float64
	DropletsSize                     [2]float64
	TrailRate                        float64
	TrailScaleRange                  [2]float64
	CollisionRadius                  float64
	CollisionRadiusIncrease          float64
	DropletsCleaningRadiusMultiplier float64
}

func DefaultParams() Params {
	return Params{
		Raining:                          true,
		MinR:                             20,
		MaxR:                             50,
		RainChance:                       0.35,
		RainLimit:                        6,
		DropletsRate:                     50,
		DropletsSize:                     [2]float64{3, 5.5},
		TrailRate:                        1,
		TrailScaleRange:                  [2]float64{0.2, 0.45},
		CollisionRadius:                  0.45,
		CollisionRadiusIncrease:          0.0002,
		DropletsCleaningRadiusMultiplier: 0.28,
	}
}
