package render

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"text/template"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luhtaf/onlyonce/internal/config"
	"github.com/luhtaf/onlyonce/internal/data"
	"github.com/luhtaf/onlyonce/internal/occurrence"
)

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

func TestRenderCatalogGolden(t *testing.T) {
	e := newEngine(t, Options{})
	require.NoError(t, e.ParseFiles(filepath.Join("testdata", "catalog.tmpl")))

	doc, err := data.Load(context.Background(), filepath.Join("testdata", "catalog.json"))
	require.NoError(t, err)

	res, err := e.Render(context.Background(), "catalog.tmpl", doc)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "catalog", res.Output)

	assert.Equal(t, []string{"default", "headers", "tags"}, res.Tracker.Spaces())
}

func TestRenderCustomDelimsGolden(t *testing.T) {
	e := newEngine(t, Options{LeftDelim: "[[", RightDelim: "]]"})
	require.NoError(t, e.ParseFiles(filepath.Join("testdata", "sample.tmpl")))

	res, err := e.Render(context.Background(), "sample.tmpl", []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "sample", res.Output)
}

func TestRenderScopeRenderResetsBetweenRenders(t *testing.T) {
	e := newEngine(t, Options{Scope: config.ScopeRender})
	require.NoError(t, e.Parse("once", `{{if onlyOnce "x"}}first{{else}}again{{end}}`))
	assert.Nil(t, e.Tracker())

	for i := 0; i < 3; i++ {
		res, err := e.Render(context.Background(), "once", nil)
		require.NoError(t, err)
		assert.Equal(t, "first", string(res.Output))
	}
}

func TestRenderScopeProcessSharesTracker(t *testing.T) {
	e := newEngine(t, Options{Scope: config.ScopeProcess})
	require.NoError(t, e.Parse("once", `{{if onlyOnce "x"}}first{{else}}again{{end}}`))

	res, err := e.Render(context.Background(), "once", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", string(res.Output))
	assert.Same(t, e.Tracker(), res.Tracker)

	res, err = e.Render(context.Background(), "once", nil)
	require.NoError(t, err)
	assert.Equal(t, "again", string(res.Output))
}

func TestRenderOnlyOnceWhenOccurs(t *testing.T) {
	e := newEngine(t, Options{})
	require.NoError(t, e.Parse("nth", `{{range .}}{{if onlyOnceWhenOccurs . 2 "pairs"}}[{{.}}]{{end}}{{end}}`))

	res, err := e.Render(context.Background(), "nth", []any{1, "1", 2, true, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "[1][2]", string(res.Output))
}

func TestRenderInvalidArgumentAborts(t *testing.T) {
	cases := map[string]string{
		"space not text":    `{{onlyOnce . 13}}`,
		"zero occurrence":   `{{onlyOnceWhenOccurs . 0}}`,
		"negative":          `{{onlyOnceWhenOccurs . -1}}`,
		"float occurrence":  `{{onlyOnceWhenOccurs . 7.7}}`,
		"string occurrence": `{{onlyOnceWhenOccurs . "12"}}`,
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEngine(t, Options{Scope: config.ScopeProcess})
			require.NoError(t, e.Parse("bad", text))

			_, err := e.Render(context.Background(), "bad", "value")
			require.Error(t, err)
			assert.True(t, errors.Is(err, occurrence.ErrInvalidArgument), "%v", err)
			assert.Contains(t, err.Error(), "render bad")
			assert.Empty(t, e.Tracker().Snapshot())
		})
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := newEngine(t, Options{})
	_, err := e.Render(context.Background(), "missing", nil)
	assert.Error(t, err)
}

func TestRenderCanceled(t *testing.T) {
	e := newEngine(t, Options{})
	require.NoError(t, e.Parse("t", "x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Render(ctx, "t", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseError(t *testing.T) {
	e := newEngine(t, Options{})
	assert.ErrorContains(t, e.Parse("broken", "{{if}}"), "parse broken")
}

func TestNewRejectsUnknownScope(t *testing.T) {
	_, err := New(Options{Scope: "forever"})
	assert.Error(t, err)
}

func TestFuncMapWithPlainTemplate(t *testing.T) {
	tr := occurrence.NewTracker()
	tmpl := template.Must(template.New("plain").Funcs(FuncMap(tr)).Parse(
		`{{range .}}{{if onlyOnce .}}{{.}} {{end}}{{end}}`))

	var out testWriter
	require.NoError(t, tmpl.Execute(&out, []any{"a", "b", "a", 1, "1"}))
	assert.Equal(t, "a b 1 ", string(out))
}

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(config.RenderCfg{Scope: config.ScopeProcess, LeftDelim: "<<", RightDelim: ">>"})
	assert.Equal(t, Options{Scope: config.ScopeProcess, LeftDelim: "<<", RightDelim: ">>"}, opts)
}

type testWriter []byte

func (w *testWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
