package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danmuck/mot/internal/datagroup"
	"github.com/danmuck/mot/internal/dump"
	"github.com/spf13/cobra"
)

func newPackCmd(opts *options) *cobra.Command {
	var (
		packOpts dump.PackOptions
		output   string
	)
	cmd := &cobra.Command{
		Use:   "pack <file>...",
		Short: "Build a YAML datagroup stream carrying files as MOT objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := resolve(cmd, opts); err != nil {
				return err
			}
			files := make([]dump.PackFile, 0, len(args))
			for _, path := range args {
				body, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				files = append(files, dump.PackFile{Name: filepath.Base(path), Body: body})
			}
			dgs, err := dump.Pack(files, packOpts)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return dump.WriteStream(cmd.OutOrStdout(), dgs)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			return writeStream(f, dgs)
		},
	}
	f := cmd.Flags()
	f.IntVar(&packOpts.SegmentSize, "segment-size", 1024, "Maximum segment payload size")
	f.BoolVar(&packOpts.Directory, "directory", false, "Send a directory instead of per object headers")
	f.Uint16Var(&packOpts.DirectoryTransportID, "directory-tid", 0, "Transport id of the directory")
	f.Uint32Var(&packOpts.CarouselPeriod, "carousel-period", 0, "Carousel period in tenths of a second")
	f.BoolVar(&packOpts.Gzip, "gzip", false, "Compress bodies")
	f.StringVarP(&output, "output", "o", "", "Write the stream to a file")
	return cmd
}

// writeStream writes dgs to wc and closes it, reporting either failure.
func writeStream(wc io.WriteCloser, dgs []datagroup.Datagroup) error {
	err := dump.WriteStream(wc, dgs)
	if closeErr := wc.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close stream: %w", closeErr))
	}
	return err
}
