package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var pwasCmd = &cobra.Command{
	Use:   "pwas",
	Short: "List stored hosts whose page declared a web app manifest",
	Args:  cobra.NoArgs,
	RunE:  runPWAs,
}

var showCmd = &cobra.Command{
	Use:   "show <netloc>",
	Short: "Print the stored record for a host",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the frontier length and its oldest entries",
	Args:  cobra.NoArgs,
	RunE:  runQueue,
}

func init() {
	queueCmd.Flags().Int64P("limit", "n", 10, "Number of pending URLs to list")
}

func runPWAs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, appOptions{store: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	pages, err := a.store.ListPWAPages(ctx)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Netloc"})
	for _, page := range pages {
		t.AppendRow(table.Row{page.ID, page.Netloc})
	}
	t.AppendFooter(table.Row{"Total", len(pages)})
	t.Render()

	return nil
}

// recordView is the YAML shape printed by the show command
type recordView struct {
	ID           int64    `yaml:"id"`
	CrawledAt    string   `yaml:"datetime"`
	Scheme       string   `yaml:"scheme"`
	Netloc       string   `yaml:"netloc"`
	Host         string   `yaml:"host"`
	Domain       string   `yaml:"domain"`
	Path         string   `yaml:"path"`
	PWA          bool     `yaml:"pwa"`
	ExternalURLs []string `yaml:"urls_external"`
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, appOptions{store: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	rec, err := a.store.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no record for %s", args[0])
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(recordView{
		ID:           rec.ID,
		CrawledAt:    rec.CrawledAt.In(loc).Format(time.RFC3339),
		Scheme:       rec.Scheme.String(),
		Netloc:       rec.Netloc,
		Host:         rec.Host,
		Domain:       rec.Domain,
		Path:         rec.Path,
		PWA:          rec.PWA,
		ExternalURLs: rec.ExternalURLs,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runQueue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt64("limit")

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, appOptions{frontier: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	pending, err := a.frontier.Len(ctx)
	if err != nil {
		return err
	}
	urls, err := a.frontier.Peek(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d URLs pending in %q\n", pending, cfg.Redis.QueueKey)
	for _, u := range urls {
		fmt.Fprintln(out, u)
	}
	return nil
}
