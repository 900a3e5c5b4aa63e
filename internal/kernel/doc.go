// Package kernel implements the per-pixel evaluation of the rotational fold.
//
// Every function here is pure: a pixel's output depends only on its position,
// the [Uniforms] for the tick and the read-only source buffer. The package
// provides:
//
//   - [Rotate]: polar rotation of a point about a pivot
//   - [InBounds] and [AreaActive]: containment and area sampling
//   - [Ratio]: the scale controller
//   - [Update]: the state-transition rule
//   - [Shade]: the mode dispatcher (render, initialize, step)
//
// Buffers are addressed in framebuffer coordinates: pixel (x, y) has its
// centre at (x+0.5, y+0.5) and the origin of the fold sits at the canvas centre.
package kernel
