// Package packer turns a pool of variable-size images into one collage
// canvas.
//
// Two policies are provided:
//
//   - ScanLine places images at their native size where they fit, scanning
//     the canvas column by column and filling the free frontier. Large or
//     badly fitting images are scaled with their aspect ratio preserved
//     (see FitSize). Generation ends when a full pass places nothing or the
//     pool runs out; a partially filled canvas is a valid result.
//   - Grid divides the canvas into equal cells and crops one image into
//     each. It fails with ErrPoolExhausted when the pool cannot fill every
//     cell.
//
// Both draw from a pool.Pool, paint the canvas border with margin.Spec.Frame
// and paint per-image borders with margin.Spec.Apply. A packer value may be
// reused for several generations but not concurrently, because the pool's
// random generator is shared.
package packer
