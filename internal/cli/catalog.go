package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Proton-105/parfum-bot/internal/catalog"
)

// CatalogOptions configures the catalog subcommands.
type CatalogOptions struct {
	SheetURL string
	Timeout  time.Duration
	Page     int
	PageSize int
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the perfume catalog sheet",
	}

	cmd.PersistentFlags().StringVar(&opts.SheetURL, "sheet-url", "", "gviz endpoint of the catalog sheet (default $CATALOG_SHEET_URL or the published sheet)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", catalog.DefaultFetchTimeout, "fetch timeout")

	search := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Fetch the sheet and list entries matching keyword",
		Long: `Fetch the catalog sheet once and print the entries whose name contains
keyword, case-insensitively. Without a keyword every entry is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}
			return runCatalogSearch(cmd, rootOpts, opts, keyword)
		},
	}
	search.Flags().IntVar(&opts.Page, "page", 1, "result page")
	search.Flags().IntVar(&opts.PageSize, "page-size", catalog.DefaultPageSize, "entries per page (6-12)")

	cmd.AddCommand(search)
	return cmd
}

func runCatalogSearch(cmd *cobra.Command, rootOpts *RootOptions, opts *CatalogOptions, keyword string) error {
	level := slog.LevelWarn
	if rootOpts.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	url := opts.SheetURL
	if url == "" {
		url = os.Getenv("CATALOG_SHEET_URL")
	}
	if url == "" {
		url = catalog.DefaultSheetURL
	}

	cache := catalog.NewCache(catalog.NewSheetSource(url, nil, opts.Timeout, log), log)
	if _, err := cache.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	page := catalog.Paginate(cache.Search(keyword), opts.Page, opts.PageSize)
	printPage(cmd.OutOrStdout(), keyword, page)
	return nil
}

func printPage(w io.Writer, keyword string, page catalog.Page) {
	if page.Total == 0 {
		fmt.Fprintf(w, "no entries match %q\n", keyword)
		return
	}

	for i, entry := range page.Entries {
		category := string(entry.Category)
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%3d. %-40s %s\n", page.Offset+i+1, strings.ToUpper(entry.Name), category)
	}
	fmt.Fprintf(w, "page %d/%d, %d entries\n", page.Number, page.Pages, page.Total)
}
