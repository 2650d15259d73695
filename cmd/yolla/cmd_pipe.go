package main

import (
	"fmt"
	"io"

	"yolla/pkg/conductor"
	"yolla/pkg/eventlog"
	"yolla/pkg/extractor"
	"yolla/pkg/registry"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newPipeCmd creates the "yolla pipe" subcommand.
func newPipeCmd() *cobra.Command {
	var sanitizeOnly bool

	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Filter directives out of a stream on stdin",
		Long: "Reads a response stream from stdin, applies embedded task\n" +
			"directives to the state database, and writes the cleaned text to\n" +
			"stdout. With --sanitize-only, directives are stripped without\n" +
			"touching any state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sanitizeOnly {
				return pipeSanitize(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return pipeApply(cmd, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&sanitizeOnly, "sanitize-only", false, "strip directives without recording them")

	return cmd
}

// pipeSanitize strips directives without any state database.
func pipeSanitize(in io.Reader, out io.Writer) error {
	var sc extractor.Scanner
	err := forEachChunk(in, func(chunk string) error {
		_, werr := io.WriteString(out, extractor.Sanitize(sc.Feed(chunk)))
		return werr
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, extractor.Sanitize(sc.Flush()))
	return err
}

// pipeApply runs the stream through the full pipeline, recording lifecycle
// events but not launching agents.
func pipeApply(cmd *cobra.Command, in io.Reader, out io.Writer) error {
	paths, err := ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}

	db, err := openStateDB(paths.StateDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	log := eventlog.New(db)
	sessionID := "pipe-" + uuid.NewString()[:8]
	sink := eventlog.NewSink(log, sessionID)
	reg := registry.New(sink)

	persisted, err := log.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("restore tasks: %w", err)
	}
	reg.Restore(persisted)

	pipe := conductor.New(reg, nil, sink)

	err = forEachChunk(in, func(chunk string) error {
		_, werr := io.WriteString(out, pipe.Feed(ctx, chunk))
		return werr
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, pipe.Flush(ctx))
	return err
}

// forEachChunk reads in until EOF, invoking fn once per read.
func forEachChunk(in io.Reader, fn func(chunk string) error) error {
	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if ferr := fn(string(buf[:n])); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
}
