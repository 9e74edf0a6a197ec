// Package vqcodec is a lossy image codec based on block vector quantization.
//
// An image is cut into fixed-size blocks, a codebook of K representative
// blocks is learned with LBG/k-means, and every block is replaced by the
// index of its nearest codevector. The codebook, the bit-packed index stream
// and a small metadata sidecar fully determine the reconstruction.
//
// # Quick Start
//
//	img, _ := raster.Load("photo.png", 0)
//
//	p := vqcodec.New(blobstore.NewLocalStore("./out", nil),
//	    vqcodec.WithCompression(vqcodec.CompressionZSTD),
//	    vqcodec.WithSeed(42),
//	)
//	run, _ := p.Compress(ctx, "photo", img, vqcodec.Params{BlockHeight: 4, BlockWidth: 4, K: 256})
//	fmt.Printf("ratio %.1f\n", run.CompressionRatio())
//
//	restored, _ := p.Decompress(ctx, "photo")
//	_ = raster.Save("photo_restored.png", restored)
//
// # Building Blocks
//
// The stages can be used on their own:
//
//	res, _ := vqcodec.Train(ctx, img, 4, 4, 256)
//	labels, _ := vqcodec.Encode(img, 4, 4, res.Codebook)
//	out, _ := vqcodec.Decode(res.Codebook, labels, res.Geometry)
//
// # Artifacts
//
// A run named base produces base_codebook, base_labels, base_meta.json and
// the informational base_codebook.txt. Saves are atomic per run: when one
// artifact fails to write, the others are removed again.
package vqcodec
