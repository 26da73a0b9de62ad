package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Sternrassler/catalog-storefront/internal/config"
	"github.com/Sternrassler/catalog-storefront/pkg/catalog"
	"github.com/Sternrassler/catalog-storefront/pkg/logging"
	"github.com/Sternrassler/catalog-storefront/pkg/pagination"
	"github.com/spf13/cobra"
)

// exportPerPage is the page size used to walk the catalog.
const exportPerPage = 100

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every product as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return runExport(cmd.Context(), opts.cfg, w)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().Int("concurrency", 0, "parallel page requests (default 4)")
	return cmd
}

// runExport fetches all product pages in parallel and writes them in page
// order, one JSON object per line.
func runExport(ctx context.Context, cfg *config.Config, w io.Writer) error {
	logger := logging.NewLogger("export")
	start := time.Now()

	c, cleanup, err := newCatalogClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fetcher := pagination.NewBatchFetcher[catalog.Product](
		catalog.ProductPager{API: catalog.NewAPI(c)},
		pagination.Config{
			MaxConcurrency: cfg.Export.Concurrency,
			Timeout:        cfg.API.Timeout,
			PerPage:        exportPerPage,
		},
	)

	pages, err := fetcher.FetchAllPages(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}
	products := pagination.Flatten(pages)

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range products {
		if err := enc.Encode(&products[i]); err != nil {
			return fmt.Errorf("encode product %d: %w", products[i].ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	logger.Info().
		Int("products", len(products)).
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Export complete")
	return nil
}
