package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdf-extractor",
		Short: "Extract plain text from PDF documents",
		Long: `pdf-extractor turns base64-encoded PDF jobs into plain text.

Without NSQ_TOPIC_CONVERT_PDF it answers HTTP requests; with it, it consumes
jobs from the configured broker and publishes outcomes.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(newServeCmd(), newExtractCmd())
	return root
}
