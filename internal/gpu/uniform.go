package gpu

import "fmt"

// UniformKind selects the upload call for a uniform.
type UniformKind int

const (
	Uniform1f UniformKind = iota
	Uniform2f
	Uniform3f
	Uniform4f
	Uniform1i
	Uniform2i
)

// Arity is the number of components the kind uploads.
func (k UniformKind) Arity() int {
	switch k {
	case Uniform1f, Uniform1i:
		return 1
	case Uniform2f, Uniform2i:
		return 2
	case Uniform3f:
		return 3
	case Uniform4f:
		return 4
	}
	return 0
}

func (k UniformKind) IsInt() bool { return k == Uniform1i || k == Uniform2i }

func (k UniformKind) String() string {
	switch k {
	case Uniform1f:
		return "1f"
	case Uniform2f:
		return "2f"
	case Uniform3f:
		return "3f"
	case Uniform4f:
		return "4f"
	case Uniform1i:
		return "1i"
	case Uniform2i:
		return "2i"
	}
	return fmt.Sprintf("UniformKind(%d)", int(k))
}

// UniformPrefix is prepended to every uniform name before lookup.
const UniformPrefix = "u_"
