package anim

import "math"

// Easing maps linear progress in [0,1] to eased progress. Every easing
// must return 0 at 0 and 1 at 1.
type Easing func(t float64) float64

func Linear(t float64) float64 { return t }

// QuintOut decelerates hard towards the end.
func QuintOut(t float64) float64 {
	return 1 - math.Pow(1-t, 5)
}

func QuadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}
