package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vqcodec"
	"github.com/hupe1980/vqcodec/internal/config"
	"github.com/hupe1980/vqcodec/internal/resource"
)

// app carries the effective configuration of one invocation.
type app struct {
	configPath string
	cfg        config.Config
	logger     *vqcodec.Logger
	rc         *resource.Controller

	// Persistent flag values, applied over the file when set.
	logLevel  string
	backend   string
	dir       string
	bucket    string
	prefix    string
	endpoint  string
	region    string
	pathStyle bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:           "vqcodec",
		Short:         "Block vector-quantization image codec",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.logLevel, "log-level", def.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&a.backend, "store", def.Store.Backend, "artifact store (local, s3, minio)")
	pf.StringVar(&a.dir, "out", def.Store.Dir, "artifact directory of the local store")
	pf.StringVar(&a.bucket, "bucket", "", "bucket of the s3 or minio store")
	pf.StringVar(&a.prefix, "prefix", "", "key prefix of the s3 or minio store")
	pf.StringVar(&a.endpoint, "endpoint", "", "s3 endpoint override or minio server")
	pf.StringVar(&a.region, "region", "", "s3 or minio region")
	pf.BoolVar(&a.pathStyle, "path-style", false, "use path-style s3 addressing")

	cmd.AddCommand(
		newCompressCmd(a),
		newDecompressCmd(a),
		newInspectCmd(a),
		newEvaluateCmd(a),
	)
	return cmd
}

// setup loads the configuration file and applies persistent flags.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	setString(flags.Changed("log-level"), &cfg.LogLevel, a.logLevel)
	setString(flags.Changed("store"), &cfg.Store.Backend, a.backend)
	setString(flags.Changed("out"), &cfg.Store.Dir, a.dir)
	setString(flags.Changed("bucket"), &cfg.Store.Bucket, a.bucket)
	setString(flags.Changed("prefix"), &cfg.Store.Prefix, a.prefix)
	setString(flags.Changed("endpoint"), &cfg.Store.Endpoint, a.endpoint)
	setString(flags.Changed("region"), &cfg.Store.Region, a.region)
	if flags.Changed("path-style") {
		cfg.Store.PathStyle = a.pathStyle
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = vqcodec.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.cfg = cfg
	return nil
}

// finish validates the configuration after command flags were applied and
// builds the resource controller.
func (a *app) finish() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	a.rc = resource.NewController(resource.Config{
		MaxJobs:            int64(a.cfg.Parallel),
		MemoryLimitBytes:   a.cfg.MemoryLimit,
		IOLimitBytesPerSec: a.cfg.IOLimit,
	})
	return nil
}

func (a *app) options() []vqcodec.Option {
	policy, _ := vqcodec.ParseInitPolicy(a.cfg.Init)
	return []vqcodec.Option{
		vqcodec.WithLogger(a.logger),
		vqcodec.WithCompression(a.cfg.Compression),
		vqcodec.WithSeed(a.cfg.Seed),
		vqcodec.WithMaxIterations(a.cfg.Iterations),
		vqcodec.WithThreshold(a.cfg.Threshold),
		vqcodec.WithWorkers(a.cfg.Workers),
		vqcodec.WithTimeLimit(a.cfg.TimeLimit),
		vqcodec.WithInit(policy),
	}
}

func setString(changed bool, dst *string, v string) {
	if changed {
		*dst = v
	}
}
