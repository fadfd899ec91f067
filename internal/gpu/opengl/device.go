// Package opengl implements gpu.Device on the OpenGL context that the
// raylib window makes current.
package opengl

import (
	"fmt"
	"strconv"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/gl/v3.3-core/gl"

	"rainfx/internal/gpu"
	"rainfx/internal/utils"
)

type Device struct {
	initialized bool
	vao         uint32
	major       int
	minor       int
}

func NewDevice() *Device { return &Device{} }

// raylib's graphics API identifiers, as returned by rl.GetVersion.
var raylibVersions = map[int32][2]int{
	1: {1, 1},
	2: {2, 1},
	3: {3, 3},
	4: {4, 3},
}

// AcquireContext accepts candidates named "opengl-MAJOR.MINOR" when both
// raylib's build and the driver provide at least that version.
func (d *Device) AcquireContext(surface gpu.Surface, name string, _ gpu.ContextOptions) error {
	want, err := parseCandidate(name)
	if err != nil {
		return err
	}
	if !rl.IsWindowReady() {
		return fmt.Errorf("window not ready")
	}

	built, ok := raylibVersions[rl.GetVersion()]
	if !ok {
		return fmt.Errorf("raylib graphics API %d is not desktop OpenGL", rl.GetVersion())
	}
	if !atLeast(built, want) {
		return fmt.Errorf("raylib built for OpenGL %d.%d", built[0], built[1])
	}

	if !d.initialized {
		if err := gl.Init(); err != nil {
			return fmt.Errorf("load OpenGL functions: %w", err)
		}
		version := gl.GoStr(gl.GetString(gl.VERSION))
		d.major, d.minor = parseGLVersion(version)
		utils.Info("OpenGL: %s (%s)", version, gl.GoStr(gl.GetString(gl.RENDERER)))
		gl.GenVertexArrays(1, &d.vao)
		d.initialized = true
	}
	if !atLeast([2]int{d.major, d.minor}, want) {
		return fmt.Errorf("driver provides OpenGL %d.%d", d.major, d.minor)
	}

	w, h := surface.Size()
	utils.Debug("OpenGL: context %s for %dx%d surface", name, w, h)
	return nil
}

func parseCandidate(name string) ([2]int, error) {
	version, ok := strings.CutPrefix(name, "opengl-")
	if !ok {
		return [2]int{}, fmt.Errorf("unsupported context %q", name)
	}
	major, minor := parseGLVersion(version)
	if major == 0 {
		return [2]int{}, fmt.Errorf("malformed context version %q", name)
	}
	return [2]int{major, minor}, nil
}

// parseGLVersion reads the leading "MAJOR.MINOR" of a GL_VERSION string.
func parseGLVersion(s string) (int, int) {
	words := strings.Fields(s)
	if len(words) == 0 {
		return 0, 0
	}
	fields := strings.SplitN(words[0], ".", 3)
	if len(fields) < 2 {
		return 0, 0
	}
	major, err1 := strconv.Atoi(fields[0])
	minor, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return major, minor
}

func atLeast(have, want [2]int) bool {
	return have[0] > want[0] || (have[0] == want[0] && have[1] >= want[1])
}

func (d *Device) CompileShader(stage gpu.ShaderStage, source string) (uint32, string, bool) {
	kind := uint32(gl.VERTEX_SHADER)
	if stage == gpu.FragmentStage {
		kind = gl.FRAGMENT_SHADER
	}
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return shader, strings.TrimRight(log, "\x00\n"), false
	}
	return shader, "", true
}

func (d *Device) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (d *Device) LinkProgram(vertex, fragment uint32, attribs []gpu.Attrib) (uint32, string, bool) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	for _, a := range attribs {
		gl.BindAttribLocation(program, a.Location, gl.Str(a.Name+"\x00"))
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return program, strings.TrimRight(log, "\x00\n"), false
	}
	gl.DetachShader(program, vertex)
	gl.DetachShader(program, fragment)
	return program, "", true
}

func (d *Device) UseProgram(program uint32) {
	gl.UseProgram(program)
	gl.BindVertexArray(d.vao)
}

func (d *Device) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (d *Device) CreateVertexBuffer(location uint32, data []float32) uint32 {
	var buffer uint32
	gl.BindVertexArray(d.vao)
	gl.GenBuffers(1, &buffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(location)
	gl.VertexAttribPointer(location, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	return buffer
}

func (d *Device) SetVertexData(buffer uint32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

func (d *Device) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (d *Device) CreateTexture(unit int) uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	return texture
}

func (d *Device) BindTexture(unit int, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (d *Device) UploadTexture(texture uint32, unit int, width, height int, pix []byte, allocate bool) {
	if len(pix) == 0 {
		return
	}
	d.BindTexture(unit, texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if allocate {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
		return
	}
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
}

func (d *Device) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) Uniform(location int32, kind gpu.UniformKind, v []float32) {
	switch kind {
	case gpu.Uniform1f:
		gl.Uniform1f(location, v[0])
	case gpu.Uniform2f:
		gl.Uniform2f(location, v[0], v[1])
	case gpu.Uniform3f:
		gl.Uniform3f(location, v[0], v[1], v[2])
	case gpu.Uniform4f:
		gl.Uniform4f(location, v[0], v[1], v[2], v[3])
	case gpu.Uniform1i:
		gl.Uniform1i(location, int32(v[0]))
	case gpu.Uniform2i:
		gl.Uniform2i(location, int32(v[0]), int32(v[1]))
	}
}

func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) DrawTriangles(first, count int32) {
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, first, count)
}

// Close deletes the vertex array created with the context.
func (d *Device) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}
