package mot

import "github.com/danmuck/mot/internal/protocol/param"

// Registries holds the decoder tables used for headers and directories.
type Registries struct {
	Header    *param.Registry
	Directory *param.Registry
}

// NewRegistries returns fresh tables holding the core parameters.
func NewRegistries() Registries {
	return Registries{
		Header:    param.NewHeaderRegistry(),
		Directory: param.NewDirectoryRegistry(),
	}
}
