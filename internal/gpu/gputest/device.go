// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"fmt"

	"rainfx/internal/gpu"
)

type Upload struct {
	Texture  uint32
	Unit     int
	Width    int
	Height   int
	Pix      []byte
	Allocate bool
}

type UniformCall struct {
	Location int32
	Name     string
	Kind     gpu.UniformKind
	Values   []float32
}

// Device records every call. It tracks live objects so tests can check
// for leaks, and fails contexts, shaders or links on request.
type Device struct {
	Contexts    map[string]bool
	FailCompile map[gpu.ShaderStage]bool
	FailLink    bool
	// Inactive lists uniform names (with prefix) that report location -1.
	Inactive map[string]bool

	Live         map[uint32]string
	Acquired     []string
	Attribs      []gpu.Attrib
	Uploads      []Upload
	Uniforms     []UniformCall
	Lookups      []string
	Draws        [][2]int32
	Bound        map[int]uint32
	Vertex       map[uint32][]float32
	ViewportSize [2]int
	Used         uint32

	// Log records call names in order.
	Log []string

	next      uint32
	locations map[string]int32
	names     map[int32]string
}

func NewDevice() *Device {
	return &Device{
		Contexts:    map[string]bool{"opengl-3.3": true},
		FailCompile: map[gpu.ShaderStage]bool{},
		Inactive:    map[string]bool{},
		Live:        map[uint32]string{},
		Bound:       map[int]uint32{},
		Vertex:      map[uint32][]float32{},
		locations:   map[string]int32{},
		names:       map[int32]string{},
	}
}

func (d *Device) alloc(kind string) uint32 {
	d.next++
	d.Live[d.next] = kind
	return d.next
}

func (d *Device) free(id uint32, kind string) {
	if d.Live[id] != kind {
		panic(fmt.Sprintf("gputest: delete of %s %d which is not live (%q)", kind, id, d.Live[id]))
	}
	delete(d.Live, id)
}

// LiveCount counts live objects of one kind.
func (d *Device) LiveCount(kind string) int {
	n := 0
	for _, k := range d.Live {
		if k == kind {
			n++
		}
	}
	return n
}

// UniformValues returns the values of every upload to the named uniform
// (without prefix), oldest first.
func (d *Device) UniformValues(name string) [][]float32 {
	var out [][]float32
	for _, u := range d.Uniforms {
		if u.Name == gpu.UniformPrefix+name {
			out = append(out, u.Values)
		}
	}
	return out
}

// UploadsTo returns the uploads to one texture unit.
func (d *Device) UploadsTo(unit int) []Upload {
	var out []Upload
	for _, u := range d.Uploads {
		if u.Unit == unit {
			out = append(out, u)
		}
	}
	return out
}

func (d *Device) AcquireContext(_ gpu.Surface, name string, _ gpu.ContextOptions) error {
	d.Acquired = append(d.Acquired, name)
	if !d.Contexts[name] {
		return fmt.Errorf("%s not supported", name)
	}
	return nil
}

func (d *Device) CompileShader(stage gpu.ShaderStage, _ string) (uint32, string, bool) {
	id := d.alloc("shader")
	if d.FailCompile[stage] {
		return id, "0:1: syntax error", false
	}
	return id, "", true
}

func (d *Device) DeleteShader(shader uint32) { d.free(shader, "shader") }

func (d *Device) LinkProgram(_, _ uint32, attribs []gpu.Attrib) (uint32, string, bool) {
	d.Attribs = attribs
	id := d.alloc("program")
	if d.FailLink {
		return id, "varying v_texCoord not written", false
	}
	return id, "", true
}

func (d *Device) UseProgram(program uint32)     { d.Used = program }
func (d *Device) DeleteProgram(program uint32) { d.free(program, "program") }

func (d *Device) CreateVertexBuffer(_ uint32, data []float32) uint32 {
	id := d.alloc("buffer")
	d.Vertex[id] = data
	return id
}

func (d *Device) SetVertexData(buffer uint32, data []float32) { d.Vertex[buffer] = data }
func (d *Device) DeleteBuffer(buffer uint32)                  { d.free(buffer, "buffer") }

func (d *Device) CreateTexture(unit int) uint32 {
	id := d.alloc("texture")
	d.Bound[unit] = id
	return id
}

func (d *Device) BindTexture(unit int, texture uint32) { d.Bound[unit] = texture }

func (d *Device) UploadTexture(texture uint32, unit int, w, h int, pix []byte, allocate bool) {
	d.Log = append(d.Log, fmt.Sprintf("upload:%d", unit))
	d.Uploads = append(d.Uploads, Upload{texture, unit, w, h, append([]byte(nil), pix...), allocate})
}

func (d *Device) DeleteTexture(texture uint32) { d.free(texture, "texture") }

func (d *Device) UniformLocation(_ uint32, name string) int32 {
	d.Lookups = append(d.Lookups, name)
	if d.Inactive[name] {
		return -1
	}
	loc, ok := d.locations[name]
	if !ok {
		loc = int32(len(d.locations))
		d.locations[name] = loc
		d.names[loc] = name
	}
	return loc
}

func (d *Device) Uniform(location int32, kind gpu.UniformKind, values []float32) {
	name := d.names[location]
	d.Log = append(d.Log, "uniform:"+name)
	d.Uniforms = append(d.Uniforms, UniformCall{location, name, kind, append([]float32(nil), values...)})
}

func (d *Device) Viewport(w, h int) { d.ViewportSize = [2]int{w, h} }

func (d *Device) DrawTriangles(first, count int32) {
	d.Log = append(d.Log, "draw")
	d.Draws = append(d.Draws, [2]int32{first, count})
}

// Surface is a fixed-size gpu.Surface.
type Surface struct{ W, H int }

func (s Surface) Size() (int, int) { return s.W, s.H }
