// Package raster defines the in-memory image buffer consumed and produced by
// the codec, and bridges it to image.Image and to image files.
//
// An Image is a dense, row-major, channel-interleaved buffer of 8-bit samples
// with one (grayscale) or three (RGB) channels. Files are decoded and encoded
// through github.com/disintegration/imaging, so every format it supports
// (PNG, JPEG, GIF, TIFF, BMP) can be compressed. Alpha is discarded.
package raster
