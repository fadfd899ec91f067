package gpu

// Surface is the drawable the program renders into, sized in device
// pixels.
type Surface interface {
	Size() (width, height int)
}

type ContextOptions struct {
	// Candidates are tried in order; the first one the device accepts
	// wins. Empty means DefaultContextCandidates.
	Candidates []string
	Alpha      bool
	Antialias  bool
}

var DefaultContextCandidates = []string{"opengl-4.3", "opengl-3.3"}

// Fixed attribute locations, bound before linking.
const (
	PositionLocation uint32 = 0
	TexCoordLocation uint32 = 1
)

type Attrib struct {
	Name     string
	Location uint32
}

var quadAttribs = []Attrib{
	{Name: "a_position", Location: PositionLocation},
	{Name: "a_texCoord", Location: TexCoordLocation},
}

// Device is the slice of a GL-style API that Program needs. Object names
// are plain uint32 handles with 0 meaning none.
type Device interface {
	AcquireContext(surface Surface, name string, opts ContextOptions) error

	// CompileShader returns the shader handle even when compilation
	// failed, so the caller can delete it.
	CompileShader(stage ShaderStage, source string) (shader uint32, infoLog string, ok bool)
	DeleteShader(shader uint32)
	LinkProgram(vertex, fragment uint32, attribs []Attrib) (program uint32, infoLog string, ok bool)
	UseProgram(program uint32)
	DeleteProgram(program uint32)

	CreateVertexBuffer(location uint32, data []float32) uint32
	SetVertexData(buffer uint32, data []float32)
	DeleteBuffer(buffer uint32)

	// CreateTexture allocates a texture on unit with clamp-to-edge
	// wrapping and linear filtering. It holds no storage until the first
	// upload.
	CreateTexture(unit int) uint32
	BindTexture(unit int, texture uint32)
	// UploadTexture writes straight-alpha RGBA pixels. With allocate set
	// the storage is (re)specified, otherwise the existing storage is
	// overwritten in place.
	UploadTexture(texture uint32, unit int, width, height int, pix []byte, allocate bool)
	DeleteTexture(texture uint32)

	UniformLocation(program uint32, name string) int32
	Uniform(location int32, kind UniformKind, values []float32)

	Viewport(width, height int)
	DrawTriangles(first, count int32)
}
