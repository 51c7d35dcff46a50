package main

import (
	"fmt"
	"os"

	"pdf-extractor/internal/codec"
	"pdf-extractor/internal/domain"
	"pdf-extractor/internal/pdf"
	"pdf-extractor/internal/service"
	apperrors "pdf-extractor/pkg/errors"
	"pdf-extractor/pkg/logger"

	"github.com/spf13/cobra"
)

type extractOptions struct {
	password string
	rotation int
	json     bool
	logLevel string
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Extract the text of a local PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "user password of an encrypted document")
	cmd.Flags().IntVarP(&opts.rotation, "rotation", "r", 0, "extra rotation in degrees")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the success outcome message instead of plain text")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "error", "log level written to stderr")
	return cmd
}

func runExtract(cmd *cobra.Command, path string, opts *extractOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	log := logger.NewLoggerWithWriter(opts.logLevel, "console", cmd.ErrOrStderr())
	extractor := service.NewPDFExtractor(pdf.NewDecoder(), log)

	text, err := extractor.Extract(data, []byte(opts.password), opts.rotation)
	if err != nil {
		return fmt.Errorf("could not extract content: %s", apperrors.Reason(err))
	}

	if !opts.json {
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}

	out, err := codec.EncodeSuccess(&domain.Job{}, path, text, false)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
