// Command vqcodec compresses images with block vector quantization.
//
//	vqcodec compress --block 4x4 -k 256 --out ./out photo.png
//	vqcodec decompress --out ./out -o restored.png photo
//	vqcodec inspect --out ./out photo
//	vqcodec evaluate --block 4x4 -k 64 photo.png
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
