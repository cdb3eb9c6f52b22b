//go:build atomdebug

package particle

// debugInfo carries the particle's index in the reference dump so pushes can
// be matched against it line by line.
type debugInfo struct {
	DebugIndex int
}

const DebugEnabled = true

// SetDebugIndex tags the particle with its position in the dump.
func (p *Particle) SetDebugIndex(i int) { p.DebugIndex = i }
