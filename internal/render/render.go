// Package render hosts the occurrence tracker inside text/template.
//
// Templates call the tracker through two functions:
//
//	{{if onlyOnce .Category "headers"}}<h2>{{.Category}}</h2>{{end}}
//	{{if onlyOnceWhenOccurs .Name 2}}{{.Name}} appears twice{{end}}
//
// The space argument is optional and defaults to "default". A non-string
// space or a non-positive occurrence number aborts the render.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"text/template"
	"time"

	"github.com/luhtaf/onlyonce/internal/config"
	"github.com/luhtaf/onlyonce/internal/log"
	"github.com/luhtaf/onlyonce/internal/occurrence"
)

// FuncMap exposes t to templates as onlyOnce and onlyOnceWhenOccurs.
func FuncMap(t *occurrence.Tracker) template.FuncMap {
	return template.FuncMap{
		"onlyOnce":           t.OnlyOnce,
		"onlyOnceWhenOccurs": t.OnlyOnceWhenOccurs,
	}
}

// Options configures an Engine.
type Options struct {
	Scope      string // config.ScopeRender or config.ScopeProcess
	LeftDelim  string
	RightDelim string
}

// OptionsFrom maps the render section of the configuration.
func OptionsFrom(c config.RenderCfg) Options {
	return Options{Scope: c.Scope, LeftDelim: c.LeftDelim, RightDelim: c.RightDelim}
}

// Result is the outcome of one render.
type Result struct {
	Template string
	Output   []byte
	Tracker  *occurrence.Tracker
	Duration time.Duration
}

// Engine parses templates once and renders them against a tracker chosen by
// the configured scope.
type Engine struct {
	opts Options
	root *template.Template

	mu     sync.Mutex
	shared *occurrence.Tracker
}

// New returns an Engine with no templates.
func New(opts Options) (*Engine, error) {
	switch opts.Scope {
	case "":
		opts.Scope = config.ScopeRender
	case config.ScopeRender, config.ScopeProcess:
	default:
		return nil, fmt.Errorf("unknown tracker scope %q", opts.Scope)
	}
	root := template.New("onlyonce").
		Delims(opts.LeftDelim, opts.RightDelim).
		Funcs(FuncMap(occurrence.NewTracker()))
	e := &Engine{opts: opts, root: root}
	if opts.Scope == config.ScopeProcess {
		e.shared = occurrence.NewTracker()
	}
	return e, nil
}

// Parse adds a template named name.
func (e *Engine) Parse(name, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.root.New(name).Parse(text); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// ParseFiles adds one template per file, named by the file's base name.
func (e *Engine) ParseFiles(paths ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.root.ParseFiles(paths...); err != nil {
		return fmt.Errorf("parse files: %w", err)
	}
	return nil
}

// Tracker returns the process-scoped tracker, or nil in render scope.
func (e *Engine) Tracker() *occurrence.Tracker { return e.shared }

// Render executes the named template against data.
func (e *Engine) Render(ctx context.Context, name string, data any) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	tr := e.tracker()

	e.mu.Lock()
	tmpl, err := e.root.Clone()
	e.mu.Unlock()
	if err != nil {
		return Result{}, fmt.Errorf("render %s: %w", name, err)
	}
	tmpl = tmpl.Funcs(FuncMap(tr))

	start := time.Now()
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		if errors.Is(err, occurrence.ErrInvalidArgument) {
			log.L.Warnw("render_invalid_argument", "event", "render_invalid_argument", "component", "render", "template", name, "err", err)
		}
		return Result{}, fmt.Errorf("render %s: %w", name, err)
	}
	res := Result{Template: name, Output: buf.Bytes(), Tracker: tr, Duration: time.Since(start)}
	log.L.Debugw("render_done",
		"event", "render_done",
		"component", "render",
		"template", name,
		"scope", e.opts.Scope,
		"bytes", len(res.Output),
		"spaces", len(tr.Spaces()),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Engine) tracker() *occurrence.Tracker {
	if e.shared != nil {
		return e.shared
	}
	return occurrence.NewTracker()
}
