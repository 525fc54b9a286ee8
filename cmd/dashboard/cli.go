package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"prod-dashboard/http-server/request"
	"prod-dashboard/internal/service/dashboard"
	"prod-dashboard/internal/service/export"
)

// NewRootCommand builds the dashboard CLI.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "ERP production dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the yaml config (defaults to CONFIG_PATH)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newReportCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	root.AddCommand(newAlertsCmd(&configPath))

	return root
}

// Execute runs the CLI.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Run the HTTP API and the alert notifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

// filterFlags mirrors the query parameters of the HTTP API.
type filterFlags struct {
	from, to, family, client, sector, priority string
	statuses                                   []string
	alert                                      bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "end date YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "status code or name, repeatable")
	cmd.Flags().StringVar(&f.family, "family", "", "technical family")
	cmd.Flags().StringVar(&f.client, "client", "", "client")
	cmd.Flags().StringVar(&f.sector, "sector", "", "sector")
	cmd.Flags().StringVar(&f.priority, "priority", "", "urgent, priority or normal")
	cmd.Flags().BoolVar(&f.alert, "alert", false, "only orders with a time alert")
}

func (f *filterFlags) query(a *app) (dashboard.Query, error) {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("from", f.from)
	set("to", f.to)
	set("family", f.family)
	set("client", f.client)
	set("sector", f.sector)
	set("priority", f.priority)
	if f.alert {
		v.Set("alert", "true")
	}
	for _, s := range f.statuses {
		v.Add("status", s)
	}
	return request.FromValues(v, a.loc)
}

// withApp builds the application for a one-shot command and closes it after.
func withApp(ctx context.Context, configPath string, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.HTTPServer.ExportTimeout)
	defer cancel()

	return fn(ctx, a)
}

func output(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newReportCmd(configPath *string) *cobra.Command {
	var flags filterFlags
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the plain-text production report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				q, err := flags.query(a)
				if err != nil {
					return err
				}

				syn, err := a.dashboard.Synthesis(ctx, q)
				if err != nil {
					return err
				}

				w, closeOut, err := output(out, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if err := export.WriteText(w, syn); err != nil {
					closeOut()
					return err
				}
				return closeOut()
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, stdout when empty")

	return cmd
}

func newExportCmd(configPath *string) *cobra.Command {
	var flags filterFlags
	var format, out, sep string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export derived orders to csv or xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unknown format %q, expected csv or xlsx", format)
			}
			if out == "" {
				out = "export_production." + format
			}

			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				q, err := flags.query(a)
				if err != nil {
					return err
				}

				if format == "xlsx" {
					return exportXLSX(ctx, a, q, out)
				}
				return exportCSV(ctx, a, q, out, sep)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&sep, "sep", ";", "csv separator")

	return cmd
}

func exportCSV(ctx context.Context, a *app, q dashboard.Query, path, sep string) error {
	const op = "main.exportCSV"

	comma := ';'
	if sep != "" {
		comma = []rune(sep)[0]
	}

	records, err := a.dashboard.Records(ctx, q)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	bar := progressbar.Default(int64(len(records)), "csv")
	enc := export.NewCSVEncoder(f, comma)
	if err := enc.WriteHeader(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range records {
		if err := enc.WriteRecord(r); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		_ = bar.Add(1)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("csv export written")
	return f.Close()
}

func exportXLSX(ctx context.Context, a *app, q dashboard.Query, path string) error {
	const op = "main.exportXLSX"

	syn, err := a.dashboard.Synthesis(ctx, q)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	bar := progressbar.Default(int64(len(syn.Records)), "xlsx")
	b, err := export.Excel(syn, func() { _ = bar.Add(1) })
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("xlsx export written")
	return nil
}

func newAlertsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Alert notifier commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Run one breach check and send pending notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				res, err := a.notifier.Check(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "breaches: %d, sent: %d, skipped: %d, failed: %d\n",
					res.Breaches, res.Sent, res.Skipped, res.Failed)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Send the daily production summary now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				s, err := a.notifier.SendSummary(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "summary sent: in progress %d, completed %d, overdue %d\n",
					s.KPIs.InProgress, s.Completed, s.KPIs.Overdue)
				return nil
			})
		},
	})

	return cmd
}
