package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/danmuck/mot/internal/datagroup"
	"github.com/danmuck/mot/internal/decoder"
	"github.com/danmuck/mot/internal/dump"
	"github.com/danmuck/mot/internal/observability"
	"github.com/spf13/cobra"
)

func newDecodeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [stream.yaml]",
		Short: "Reassemble objects from a YAML datagroup stream",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, opts)
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
			dgs, err := dump.ReadStream(bytes.NewReader(data))
			if err != nil {
				return err
			}

			logger := observability.InitLogger("motdump")
			dec := decoder.New(decoder.WithRegistries(regs), decoder.WithLogger(logger))
			report := dump.Objects(cmd.Context(), dec, datagroup.NewSliceSource(dgs...), name)

			err = write(cmd.OutOrStdout(), cfg.Format, func(w io.Writer) error {
				return dump.WriteObjectsText(w, report)
			}, report)
			if err != nil {
				return err
			}
			if cfg.Metrics {
				return observability.WriteMetrics(cmd.ErrOrStderr())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print decoder metrics to stderr")
	return cmd
}
