// Package distance provides the vector distance used to compare pixel blocks
// with codevectors.
//
// All functions operate on float32 samples and accumulate in float64 so that
// large blocks (e.g. 16x16 RGB) keep full integer precision for 8-bit inputs.
//
// # Usage
//
//	d := distance.SquaredL2(block, codevector)
package distance
