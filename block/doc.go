// Package block slices a raster.Image into fixed-size, non-overlapping pixel
// blocks and reassembles blocks into an image.
//
// Blocks are visited in row-major block order (top to bottom, left to right).
// Each block is flattened into a float32 vector of length bh*bw*C: rows top to
// bottom, columns left to right, channels interleaved.
//
// # Padding
//
// When the image width or height is not a multiple of the block size the last
// block column/row extends past the image. Those samples are filled by edge
// replication: the source coordinate is clamped to the last valid column or
// row. Assemble never writes padded samples back, so reassembly crops to the
// original dimensions.
package block
