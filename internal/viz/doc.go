// Package viz renders trajectory-tracking runs in the terminal.
//
// The package implements a live TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one run, driven by a [StepFunc]
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [Projection]: field-coordinate (meters) to canvas mapping
//
// # Key Bindings
//
//	Space - Pause/Resume tracking
//	Q     - Quit
package viz
