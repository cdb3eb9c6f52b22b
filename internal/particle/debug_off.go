//go:build !atomdebug

package particle

type debugInfo struct{}

// DebugEnabled reports whether particles carry the debug index.
const DebugEnabled = false

func (p *Particle) SetDebugIndex(int) {}
