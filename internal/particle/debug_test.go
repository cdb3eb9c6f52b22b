//go:build atomdebug

package particle

import "testing"

func TestAssign_PropagatesDebugIndex(t *testing.T) {
	src := New(0, 0, 0, 1, 0, 0, 1, -1)
	src.DebugIndex = 4711

	var dst Particle
	dst.Assign(&src)

	if dst.DebugIndex != 4711 {
		t.Errorf("DebugIndex = %d, want 4711", dst.DebugIndex)
	}
	if !DebugEnabled {
		t.Error("DebugEnabled must be true under the atomdebug tag")
	}
}
