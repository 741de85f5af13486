package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/luhtaf/onlyonce/internal/config"
	"github.com/luhtaf/onlyonce/internal/data"
	"github.com/luhtaf/onlyonce/internal/log"
	"github.com/luhtaf/onlyonce/internal/meta"
	"github.com/luhtaf/onlyonce/internal/publish"
	"github.com/luhtaf/onlyonce/internal/render"
	"github.com/luhtaf/onlyonce/internal/report"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	Templates []string
	Name      string
	Data      string
	Out       string
	Report    string
	Publish   bool
	Scope     string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template against a data document",
		Long: `Render parses the given template files, loads the data document
(JSON, NDJSON or YAML by extension, "-" for JSON on stdin) and executes the
first template, or the one named by --name.

With --report the tracker's counts are exported to a SQLite file. With
--publish the output file is uploaded to S3-compatible storage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), rootOpts.Config, opts, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Templates, "template", "t", nil, "template file (repeatable)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "template to execute (default: base name of the first --template)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "data document; \"-\" reads JSON from stdin")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.Report, "report", "", "export counts to this SQLite file (overrides report.sqlite_path)")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "upload the output file (overrides publish.enabled)")
	cmd.Flags().StringVar(&opts.Scope, "scope", "", "tracker scope: render|process (overrides render.scope)")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func runRender(ctx context.Context, cfg config.Config, opts *RenderOptions, cmd *cobra.Command) error {
	if opts.Scope != "" {
		cfg.Render.Scope = opts.Scope
	}
	if opts.Report != "" {
		cfg.Report.Enabled = true
		cfg.Report.SQLitePath = opts.Report
	}
	if opts.Publish {
		cfg.Publish.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Publish.Enabled && opts.Out == "" {
		return fmt.Errorf("--publish needs --out")
	}

	engine, err := render.New(render.OptionsFrom(cfg.Render))
	if err != nil {
		return err
	}
	if err := engine.ParseFiles(opts.Templates...); err != nil {
		return err
	}
	name := opts.Name
	if name == "" {
		name = filepath.Base(opts.Templates[0])
	}

	var doc any
	switch opts.Data {
	case "":
	case "-":
		if doc, err = data.Decode(ctx, cmd.InOrStdin(), data.FormatJSON); err != nil {
			return fmt.Errorf("load data from stdin: %w", err)
		}
	default:
		if doc, err = data.Load(ctx, opts.Data); err != nil {
			return fmt.Errorf("load data %s: %w", opts.Data, err)
		}
	}

	res, err := engine.Render(ctx, name, doc)
	if err != nil {
		return err
	}
	runID := uuid.NewString()

	if opts.Out == "" {
		if _, err := cmd.OutOrStdout().Write(res.Output); err != nil {
			return err
		}
	} else if err := writeFile(opts.Out, res.Output); err != nil {
		return err
	}

	if cfg.Report.Enabled {
		if err := exportReport(ctx, cfg.Report, runID, res); err != nil {
			return err
		}
	}

	var key string
	if cfg.Publish.Enabled {
		if key, err = publishOutput(ctx, cfg.Publish, runID, name, opts.Out); err != nil {
			return err
		}
	}

	log.L.Infow("render_success",
		"event", "render_success",
		"component", "onlyonce",
		"run_id", runID,
		"template", name,
		"scope", cfg.Render.Scope,
		"bytes", len(res.Output),
		"sha256", meta.HashBytes(res.Output),
		"entries", len(res.Tracker.Snapshot()),
		"key", key,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return nil
}

func writeFile(path string, b []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

func exportReport(ctx context.Context, c config.ReportCfg, runID string, res render.Result) error {
	if dir := filepath.Dir(c.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	rep, err := report.Open(c.SQLitePath)
	if err != nil {
		return fmt.Errorf("open report %s: %w", c.SQLitePath, err)
	}
	defer rep.Close()

	entries := res.Tracker.Snapshot()
	if err := rep.Write(ctx, runID, entries); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	removed, err := rep.GC(ctx, c.RetentionDays)
	if err != nil {
		return fmt.Errorf("gc report: %w", err)
	}
	log.L.Infow("report_written",
		"event", "report_written",
		"component", "report",
		"path", c.SQLitePath,
		"run_id", runID,
		"entries", len(entries),
		"gc_rows", removed,
	)
	return nil
}

func publishOutput(ctx context.Context, c config.PublishCfg, runID, tmpl, path string) (string, error) {
	hash, size, err := meta.HashSHA256(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	a := meta.Artifact{
		Path:     path,
		Name:     filepath.Base(path),
		Template: tmpl,
		RunID:    runID,
		SHA256:   hash,
		MIME:     meta.GuessMIME(path),
		TS:       time.Now(),
		Size:     size,
	}

	p, err := publish.FromConfig(c)
	if err != nil {
		return "", err
	}
	if err := p.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket %s: %w", c.Bucket, err)
	}
	return p.UploadWithRetry(ctx, a, c.MaxRetries, c.BackoffMS)
}
