// Package data loads the documents templates are rendered against.
package data

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/luhtaf/onlyonce/internal/log"
)

// ErrNumberRange is returned for a JSON number that fits neither int64 nor
// float64.
var ErrNumberRange = errors.New("number out of range")

// Format names a data encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
)

// FormatOf picks a format from a file extension. Unknown extensions are
// treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads the document at path. "-" reads JSON from stdin.
func Load(ctx context.Context, path string) (any, error) {
	if path == "-" {
		return Decode(ctx, os.Stdin, FormatJSON)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(ctx, f, FormatOf(path))
}

// Decode reads one document in the given format. NDJSON yields a []any with
// one item per non-empty line; malformed lines are skipped with a warning.
// JSON numbers decode to int64 when integral and float64 otherwise.
func Decode(ctx context.Context, r io.Reader, format Format) (any, error) {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return normalize(doc)
	case FormatNDJSON:
		return decodeLines(ctx, r)
	case FormatYAML:
		var doc any
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return normalize(doc)
	default:
		return nil, fmt.Errorf("unknown data format %q", format)
	}
}

func decodeLines(ctx context.Context, r io.Reader) ([]any, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	items := []any{}
	lineNo := 0
	for s.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++
		line := bytes.TrimSpace(s.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var item any
		if err := dec.Decode(&item); err != nil {
			log.L.Warnw("data_line_skipped", "event", "data_line_skipped", "component", "data", "line", lineNo, "err", err)
			continue
		}
		norm, err := normalize(item)
		if err != nil {
			log.L.Warnw("data_line_skipped", "event", "data_line_skipped", "component", "data", "line", lineNo, "err", err)
			continue
		}
		items = append(items, norm)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read ndjson: %w", err)
	}
	return items, nil
}

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// normalize replaces decoded JSON numbers with int64 or float64. Numbers
// outside both ranges fail with ErrNumberRange.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		if f, err := x.Float64(); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNumberRange, x)
	case []any:
		for i := range x {
			n, err := normalize(x[i])
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			x[i] = n
		}
		return x, nil
	case map[string]any:
		for k := range x {
			n, err := normalize(x[k])
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			x[k] = n
		}
		return x, nil
	default:
		return v, nil
	}
}
