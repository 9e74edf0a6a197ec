// Package format implements the on-disk artifacts of a compression run.
//
// A run produces four artifacts sharing a base name:
//
//	<base>_codebook      binary codebook ("VQCB")
//	<base>_labels        bit-packed index stream ("VQLB")
//	<base>_meta.json     image and block geometry
//	<base>_codebook.txt  human-readable codebook dump
//
// All binary integers are little-endian. Bodies may be LZ4 or ZSTD
// compressed; the compression byte in the header selects the algorithm.
// Any malformed input yields ErrFormat and no partial result.
package format
