package main

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/hupe1980/vqcodec/internal/compress"
	"github.com/hupe1980/vqcodec/internal/config"
)

// codecFlags are the training and encoding flags shared by compress and
// evaluate.
type codecFlags struct {
	block       string
	k           int
	seed        int64
	iterations  int
	threshold   float64
	workers     int
	timeLimit   time.Duration
	init        string
	compression string
	gray        bool
}

func (f *codecFlags) register(fs *pflag.FlagSet) {
	def := config.Default()
	fs.StringVar(&f.block, "block", def.Block.String(), "block size HxW")
	fs.IntVarP(&f.k, "k", "k", def.K, "codebook size")
	fs.Int64Var(&f.seed, "seed", def.Seed, "random seed")
	fs.IntVar(&f.iterations, "iterations", def.Iterations, "maximum k-means passes per phase")
	fs.Float64Var(&f.threshold, "threshold", def.Threshold, "relative distortion decrease that ends training")
	fs.IntVar(&f.workers, "workers", def.Workers, "assignment workers per image (0 = GOMAXPROCS)")
	fs.DurationVar(&f.timeLimit, "time-limit", def.TimeLimit, "training time limit (0 = none)")
	fs.StringVar(&f.init, "init", def.Init, "initial codebook (split, random)")
	fs.StringVar(&f.compression, "compression", def.Compression.String(), "artifact compression (none, lz4, zstd)")
	fs.BoolVar(&f.gray, "gray", def.Gray, "convert inputs to grayscale")
}

// apply overrides cfg with every flag that was set on the command line.
func (f *codecFlags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("block") {
		b, err := config.ParseBlockSize(f.block)
		if err != nil {
			return err
		}
		cfg.Block = b
	}
	if fs.Changed("compression") {
		c, err := compress.ParseType(f.compression)
		if err != nil {
			return err
		}
		cfg.Compression = c
	}
	if fs.Changed("k") {
		cfg.K = f.k
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("iterations") {
		cfg.Iterations = f.iterations
	}
	if fs.Changed("threshold") {
		cfg.Threshold = f.threshold
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("time-limit") {
		cfg.TimeLimit = f.timeLimit
	}
	if fs.Changed("init") {
		cfg.Init = f.init
	}
	if fs.Changed("gray") {
		cfg.Gray = f.gray
	}
	return nil
}
