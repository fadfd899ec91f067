package gpu

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"rainfx/internal/utils"
)

// MaxTextureUnits bounds the sampler units a program may reserve.
const MaxTextureUnits = 16

var (
	fullViewportQuad = []float32{
		-1, -1,
		1, -1,
		-1, 1,
		-1, 1,
		1, -1,
		1, 1,
	}
	unitQuad = []float32{
		0, 0,
		1, 0,
		0, 1,
		0, 1,
		1, 0,
		1, 1,
	}
)

// Texture is a device texture pinned to one sampler unit for its whole
// life.
type Texture struct {
	ID     uint32
	Unit   int
	Width  int
	Height int

	// staging holds converted pixels between uploads.
	staging []byte
}

// Program owns one linked shader program, the two static quad buffers and
// every texture created through it.
type Program struct {
	dev Device

	context        string
	program        uint32
	positionBuffer uint32
	texCoordBuffer uint32
	width, height  int

	locations map[string]int32
	textures  map[int]*Texture
	released  bool
}

func NewProgram(dev Device) *Program {
	return &Program{
		dev:       dev,
		locations: make(map[string]int32),
		textures:  make(map[int]*Texture),
	}
}

// Initialize acquires a context, builds the program and allocates the quad
// buffers. On any failure everything created so far is released.
func (p *Program) Initialize(surface Surface, opts ContextOptions, vertexSource, fragmentSource string) (err error) {
	if p.released {
		return ErrReleased
	}
	p.context = ""
	defer func() {
		if err != nil {
			p.context = ""
		}
	}()

	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = DefaultContextCandidates
	}
	var lastErr error
	for _, name := range candidates {
		err := p.dev.AcquireContext(surface, name, opts)
		if err == nil {
			p.context = name
			break
		}
		utils.Debug("GPU: context %s unavailable: %v", name, err)
		lastErr = err
	}
	if p.context == "" {
		if lastErr == nil {
			return fmt.Errorf("%w (no candidates)", ErrContextUnavailable)
		}
		return fmt.Errorf("%w (tried %s): %w", ErrContextUnavailable, strings.Join(candidates, ", "), lastErr)
	}
	utils.Info("GPU: using %s context", p.context)

	vertex, err := p.compile(VertexStage, vertexSource)
	if err != nil {
		return err
	}
	fragment, err := p.compile(FragmentStage, fragmentSource)
	if err != nil {
		p.dev.DeleteShader(vertex)
		return err
	}

	program, infoLog, ok := p.dev.LinkProgram(vertex, fragment, quadAttribs)
	// Shaders are no longer needed once linking has been attempted.
	p.dev.DeleteShader(vertex)
	p.dev.DeleteShader(fragment)
	if !ok {
		utils.Error("GPU: program link failed: %s", infoLog)
		if program != 0 {
			p.dev.DeleteProgram(program)
		}
		return &ProgramLinkError{Log: infoLog}
	}
	p.program = program
	p.dev.UseProgram(program)

	p.texCoordBuffer = p.dev.CreateVertexBuffer(TexCoordLocation, unitQuad)
	p.positionBuffer = p.dev.CreateVertexBuffer(PositionLocation, fullViewportQuad)

	p.width, p.height = surface.Size()
	p.dev.Viewport(p.width, p.height)
	return nil
}

func (p *Program) compile(stage ShaderStage, source string) (uint32, error) {
	shader, infoLog, ok := p.dev.CompileShader(stage, source)
	if ok {
		return shader, nil
	}
	utils.Error("GPU: %s shader compile failed: %s", stage, infoLog)
	if shader != 0 {
		p.dev.DeleteShader(shader)
	}
	return 0, &ShaderCompileError{Stage: stage, Log: infoLog}
}

// Context names the candidate that was acquired.
func (p *Program) Context() string { return p.context }

func (p *Program) Size() (int, int) { return p.width, p.height }

// Resize updates the viewport after the surface changed size.
func (p *Program) Resize(width, height int) {
	if p.program == 0 || (width == p.width && height == p.height) {
		return
	}
	p.width, p.height = width, height
	p.dev.Viewport(width, height)
}

func (p *Program) ready() error {
	if p.released {
		return ErrReleased
	}
	if p.program == 0 {
		return ErrNotInitialized
	}
	return nil
}

// CreateTexture reserves unit for a new texture and uploads src when it is
// not nil.
func (p *Program) CreateTexture(src image.Image, unit int) (*Texture, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if unit < 0 || unit >= MaxTextureUnits {
		return nil, fmt.Errorf("gpu: texture unit %d out of range [0,%d)", unit, MaxTextureUnits)
	}
	if _, taken := p.textures[unit]; taken {
		return nil, fmt.Errorf("%w: %d", ErrTextureUnitInUse, unit)
	}

	tex := &Texture{ID: p.dev.CreateTexture(unit), Unit: unit}
	p.textures[unit] = tex
	if src != nil {
		p.upload(tex, src)
	}
	return tex, nil
}

// UpdateTexture re-uploads pixels into an existing texture object. Storage
// is only respecified when the size changes.
func (p *Program) UpdateTexture(tex *Texture, src image.Image) error {
	if err := p.ready(); err != nil {
		return err
	}
	if tex == nil || p.textures[tex.Unit] != tex {
		return fmt.Errorf("gpu: texture not owned by this program")
	}
	if src == nil {
		return nil
	}
	p.upload(tex, src)
	return nil
}

func (p *Program) upload(tex *Texture, src image.Image) {
	pix, w, h := tex.straightRGBA(src)
	allocate := w != tex.Width || h != tex.Height
	p.dev.UploadTexture(tex.ID, tex.Unit, w, h, pix, allocate)
	tex.Width, tex.Height = w, h
}

func (tex *Texture) buffer(n int) []byte {
	if cap(tex.staging) < n {
		tex.staging = make([]byte, n)
	}
	tex.staging = tex.staging[:n]
	return tex.staging
}

// straightRGBA returns tightly packed non-premultiplied RGBA pixels. Tight
// NRGBA images are passed through; premultiplied RGBA is converted into the
// texture's staging buffer.
func (tex *Texture) straightRGBA(src image.Image) ([]byte, int, int) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	switch img := src.(type) {
	case *image.NRGBA:
		if b.Min == (image.Point{}) && img.Stride == 4*w {
			return img.Pix[:4*w*h], w, h
		}
	case *image.RGBA:
		buf := tex.buffer(4 * w * h)
		for y := 0; y < h; y++ {
			off := img.PixOffset(b.Min.X, b.Min.Y+y)
			unpremultiply(buf[4*w*y:4*w*(y+1)], img.Pix[off:off+4*w])
		}
		return buf, w, h
	}
	buf := tex.buffer(4 * w * h)
	dst := &image.NRGBA{Pix: buf, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return buf, w, h
}

// unpremultiply converts one row of premultiplied pixels, rounding the way
// color.NRGBAModel does.
func unpremultiply(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		a := src[i+3]
		switch a {
		case 0:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
		case 255:
			copy(dst[i:i+4], src[i:i+4])
		default:
			dst[i] = unpremul(src[i], a)
			dst[i+1] = unpremul(src[i+1], a)
			dst[i+2] = unpremul(src[i+2], a)
			dst[i+3] = a
		}
	}
}

func unpremul(c, a uint8) uint8 {
	return uint8(min(uint32(c)*0xffff/uint32(a)>>8, 255))
}

// Use makes the program current and rebinds every texture to its unit.
// Other renderers sharing the context (raylib's batch) rebind units
// between frames.
func (p *Program) Use() error {
	if err := p.ready(); err != nil {
		return err
	}
	p.dev.UseProgram(p.program)
	units := make([]int, 0, len(p.textures))
	for unit := range p.textures {
		units = append(units, unit)
	}
	sort.Ints(units)
	for _, unit := range units {
		p.dev.BindTexture(unit, p.textures[unit].ID)
	}
	return nil
}

// SetUniform uploads values to the uniform "u_"+name. A name the linker
// optimized away is silently ignored.
func (p *Program) SetUniform(kind UniformKind, name string, values ...float32) error {
	if err := p.ready(); err != nil {
		return err
	}
	if arity := kind.Arity(); arity == 0 || arity != len(values) {
		return fmt.Errorf("gpu: uniform %s: kind %s takes %d values, got %d", name, kind, arity, len(values))
	}

	loc, ok := p.locations[name]
	if !ok {
		loc = p.dev.UniformLocation(p.program, UniformPrefix+name)
		p.locations[name] = loc
		if loc < 0 {
			utils.Debug("GPU: uniform %s%s not active", UniformPrefix, name)
		}
	}
	if loc < 0 {
		return nil
	}
	p.dev.Uniform(loc, kind, values)
	return nil
}

// Draw re-issues the full-viewport quad and draws it as two triangles.
func (p *Program) Draw() error {
	if err := p.ready(); err != nil {
		return err
	}
	p.dev.SetVertexData(p.positionBuffer, fullViewportQuad)
	p.dev.DrawTriangles(0, 6)
	return nil
}

// Release frees every device object. It is safe to call more than once.
func (p *Program) Release() {
	if p.released {
		return
	}
	p.released = true
	for unit, tex := range p.textures {
		p.dev.DeleteTexture(tex.ID)
		delete(p.textures, unit)
	}
	if p.positionBuffer != 0 {
		p.dev.DeleteBuffer(p.positionBuffer)
		p.positionBuffer = 0
	}
	if p.texCoordBuffer != 0 {
		p.dev.DeleteBuffer(p.texCoordBuffer)
		p.texCoordBuffer = 0
	}
	if p.program != 0 {
		p.dev.DeleteProgram(p.program)
		p.program = 0
	}
}
