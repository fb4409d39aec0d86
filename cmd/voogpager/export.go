package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/voog-pager/pkg/pagination"
	"github.com/spf13/cobra"
)

func newExportCommand(cfg *appConfig) *cobra.Command {
	var (
		outputFile  string
		format      string
		maxPages    int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every item of a listing",
		Long: `Fetch every page of the configured listing in parallel and write the
items in page order, one JSON object per line (ndjson) or as a JSON array.

When a page fails the items fetched so far are still written and the
command exits with an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "ndjson" && format != "json" {
				return fmt.Errorf("unknown format %q (want ndjson or json)", format)
			}

			out := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			batch := pagination.DefaultBatchConfig()
			batch.MaxPages = maxPages
			if concurrency > 0 {
				batch.MaxConcurrency = concurrency
			}
			return runExport(cmd.Context(), cfg, batch, format, out)
		},
	}

	cmd.Flags().StringVar(&outputFile, "output", "", "output file path (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "ndjson", "output format: ndjson or json")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 = all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel page requests (default 4)")

	return cmd
}

func runExport(ctx context.Context, cfg *appConfig, batch pagination.BatchConfig, format string, out io.Writer) error {
	opts, err := cfg.resolveOptions(nil)
	if err != nil {
		return err
	}

	voog, err := cfg.newClient(nil)
	if err != nil {
		return fmt.Errorf("failed to create Voog client: %w", err)
	}

	pages, fetchErr := pagination.NewBatchFetcher(voog, nil, batch).FetchAllPages(ctx, opts)
	items := pagination.Flatten(pages)

	if err := writeItems(out, items, format); err != nil {
		return fmt.Errorf("failed to write items: %w", err)
	}
	return fetchErr
}

// writeItems writes items compacted, as ndjson or a JSON array.
func writeItems(out io.Writer, items []json.RawMessage, format string) error {
	w := bufio.NewWriter(out)
	var buf bytes.Buffer

	if format == "json" {
		w.WriteString("[")
	}
	for i, item := range items {
		buf.Reset()
		if err := json.Compact(&buf, item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}

		if format == "json" && i > 0 {
			w.WriteString(",")
		}
		w.Write(buf.Bytes())
		if format == "ndjson" {
			w.WriteString("\n")
		}
	}
	if format == "json" {
		w.WriteString("]\n")
	}

	return w.Flush()
}
