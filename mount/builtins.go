package mount

import (
	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/config"
)

type BuiltInMountType = string

const (
	NoneMountType     BuiltInMountType = "none"
	LoopbackMountType BuiltInMountType = "loopback"
)

// RegisterBuiltins registers all built-in mounters on r by default
// or only the specific ones if types are provided
func RegisterBuiltins(r *Registry, types ...BuiltInMountType) {
	if len(types) == 0 {
		types = append(types, NoneMountType, LoopbackMountType)
	}

	for _, key := range types {
		switch key {
		case NoneMountType:
			r.Register(NoneMountType, func(*config.Config) treenav.Mounter { return None{} })
		case LoopbackMountType:
			r.Register(LoopbackMountType, func(cfg *config.Config) treenav.Mounter { return NewLoopback(cfg.LogLvl) })
		}
	}
}

// Default returns a Registry with every built-in mounter registered.
func Default() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}
