// Package viz provides terminal-based visualization for particle runs.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view stepping a simulator and drawing particle positions
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [Camera]: rotatable 3D projection for the orbit view
//   - Themes: plasma (default), phosphor and cherenkov, cycled with T or picked with --theme
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	T     - Cycle color themes
//	M     - Toggle the 3D view
//	+/-   - Steps per frame
//	?     - Show help overlay
//	[]    - Time travel (rewind/forward)
package viz
