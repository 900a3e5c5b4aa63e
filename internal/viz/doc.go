// Package viz provides terminal visualization for the dragon fold.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live fold animation with a stats panel
//   - [Canvas]: Braille-based pixel canvas, filled from a frame buffer
//   - a preset menu that hands over to the live view
//
// # Key Bindings
//
//	Space - Pause/Resume folding
//	N     - Run a single round while paused
//	R     - Reseed
//	G     - Toggle GIF recording
//	B     - Toggle the fold bounding box and pivot
//	?     - Show help overlay
//
// # Recording
//
// While recording, the committed frame of every round is captured. Toggling
// G again writes dragonsim.gif to the current directory.
package viz
