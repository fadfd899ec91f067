package gpu

import (
	"errors"
	"fmt"
)

var (
	ErrContextUnavailable = errors.New("gpu: no rendering context available")
	ErrTextureUnitInUse   = errors.New("gpu: texture unit already reserved")
	ErrReleased           = errors.New("gpu: program released")
	ErrNotInitialized     = errors.New("gpu: program not initialized")
)

type ShaderStage int

const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ShaderCompileError carries the driver's info log for a shader that did
// not compile.
type ShaderCompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("gpu: failed to compile %s shader: %s", e.Stage, e.Log)
}

type ProgramLinkError struct {
	Log string
}

func (e *ProgramLinkError) Error() string {
	return "gpu: failed to link shader program: " + e.Log
}
