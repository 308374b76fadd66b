package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/danmuck/mot/internal/config"
	"github.com/danmuck/mot/internal/dump"
	"github.com/danmuck/mot/internal/logging"
	"github.com/danmuck/mot/internal/mot"
	"github.com/danmuck/mot/internal/mot/epg"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	format     string
	logLevel   string
	mode       string
	raw        bool
	hexWidth   int
	metrics    bool
	extensions []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "motdump [file]",
		Short: "Inspect MOT header, directory and body segments",
		Long: "motdump reads one MOT segment from a file or standard input and prints it.\n" +
			"The segment starts with its 16 bit segment header unless --raw is given.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegment(cmd, opts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	pf.StringVarP(&opts.format, "format", "f", "text", "Output format: text or yaml")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	pf.StringSliceVar(&opts.extensions, "ext", nil, "Parameter extensions to register (epg)")

	f := cmd.Flags()
	f.StringVarP(&opts.mode, "mode", "m", "h", "Segment kind: h (header), d (directory) or b (body)")
	f.BoolVar(&opts.raw, "raw", false, "Input has no segment header")
	f.IntVar(&opts.hexWidth, "hex-width", 16, "Bytes per line in body dumps")

	cmd.AddCommand(newPackCmd(opts), newDecodeCmd(opts), newConfigCmd())
	return cmd
}

// resolve layers the config file, then explicit flags, over the defaults
// and applies the log level.
func resolve(cmd *cobra.Command, opts *options) (config.Dump, error) {
	cfg := config.DefaultDump()
	if opts.configPath != "" {
		loaded, err := config.LoadDump(opts.configPath)
		if err != nil {
			return config.Dump{}, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("ext") {
		cfg.Extensions = opts.extensions
	}
	if flags.Changed("mode") {
		cfg.Mode = config.NormalizeMode(opts.mode)
	}
	if flags.Changed("hex-width") {
		cfg.HexWidth = opts.hexWidth
	}
	if flags.Changed("metrics") {
		cfg.Metrics = opts.metrics
	}
	if err := config.ValidateDump(cfg); err != nil {
		return config.Dump{}, err
	}

	logging.ConfigureRuntime()
	if os.Getenv(logging.EnvLogLevel) == "" {
		if err := logging.SetLevel(cfg.LogLevel); err != nil {
			return config.Dump{}, err
		}
	}
	return cfg, nil
}

func registries(cfg config.Dump) (mot.Registries, func(mot.ContentType) (string, bool), error) {
	if slices.Contains(cfg.Extensions, "epg") {
		regs, err := epg.Registries()
		return regs, epg.ContentTypeName, err
	}
	return mot.NewRegistries(), mot.ContentType.Name, nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func write(w io.Writer, format string, text func(io.Writer) error, v any) error {
	switch format {
	case "yaml":
		return dump.WriteYAML(w, v)
	case "text":
		return text(w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func runSegment(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := resolve(cmd, opts)
	if err != nil {
		return err
	}
	mode, err := dump.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	regs, name, err := registries(cfg)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, args)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	report, err := dump.Segment(data, dump.Options{
		Mode:            mode,
		Registries:      regs,
		Raw:             opts.raw,
		HexWidth:        cfg.HexWidth,
		ContentTypeName: name,
	})
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), cfg.Format, func(w io.Writer) error {
		return dump.WriteText(w, report)
	}, report)
}
