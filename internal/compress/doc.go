// Package compress wraps artifact bodies in an optional LZ4 or ZSTD block.
//
// Compressed blocks carry an 8-byte little-endian header:
// [UncompressedSize uint32][CompressedSize uint32]. CompressedSize == 0 means
// the payload is stored raw because compression did not pay off.
package compress
