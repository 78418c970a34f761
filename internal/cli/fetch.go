package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scalewithchintan/news-cache/pkg/news"
)

var (
	fetchLimit  int
	fetchFormat string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print the latest cached articles",
	RunE:  fetchAction,
}

func init() {
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "maximum number of articles (default NEWS_DEFAULT_LIMIT)")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "json", "output format: json, text")
	rootCmd.AddCommand(fetchCmd)
}

func fetchAction(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	limit := a.cfg.DefaultLimit
	if cmd.Flags().Changed("limit") {
		limit = fetchLimit
	}

	articles, err := a.reader().FetchLatest(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("fetch latest: %w", err)
	}

	switch fetchFormat {
	case "json", "":
		return printArticlesJSON(cmd.OutOrStdout(), articles)
	case "text":
		printArticles(cmd.OutOrStdout(), articles)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or text)", fetchFormat)
	}
}

func printArticlesJSON(w io.Writer, articles []news.Article) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(articles)
}

func printArticles(w io.Writer, articles []news.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No news cached yet.")
		return
	}
	for i, a := range articles {
		fmt.Fprintf(w, "%3d. %s\n     %s | %s\n     %s\n", i+1, a.Title, a.SourceName, a.PublishedAt, a.URL)
	}
}
