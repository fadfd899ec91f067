package weather

import "strings"

// Slide ties a selection id to a preset name.
type Slide struct {
	ID      string
	Weather string
}

type Slides []Slide

func DefaultSlides() Slides {
	return Slides{
		{ID: "slide-1", Weather: Rain},
		{ID: "slide-2", Weather: Storm},
		{ID: "slide-3", Weather: Fallout},
		{ID: "slide-4", Weather: Drizzle},
		{ID: "slide-5", Weather: Sunny},
	}
}

// Resolve finds the slide for a selection such as "#slide-2". Empty or
// unknown selections resolve to the first slide; matched is false then.
func (s Slides) Resolve(selection string) (slide Slide, matched bool) {
	id := strings.TrimPrefix(strings.TrimSpace(selection), "#")
	for _, sl := range s {
		if id != "" && sl.ID == id {
			return sl, true
		}
	}
	if len(s) == 0 {
		return Slide{}, false
	}
	return s[0], false
}

// Index returns the position of the slide with id, or -1.
func (s Slides) Index(id string) int {
	for i, sl := range s {
		if sl.ID == id {
			return i
		}
	}
	return -1
}
