// Package filter compiles CEL expressions that select records from a ring
// log listing.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/ringlog/internal/device"
)

// Filter is a compiled CEL predicate. The zero Filter matches everything.
type Filter struct {
	prog    cel.Program
	enabled bool
	now     func() time.Time
}

// Compile parses and type-checks expr. An empty expression yields a filter
// that matches every record. The expression must evaluate to bool and may
// use the variables index, offset, size, text, json and now_ms.
func Compile(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("index", cel.IntType),
		cel.Variable("offset", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		// parsed JSON body, null when the record is not JSON
		cel.Variable("json", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, fmt.Errorf("filter: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return Filter{}, fmt.Errorf("filter: expression must be bool, got %s", ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Filter{}, fmt.Errorf("filter: %w", err)
	}
	return Filter{prog: prog, enabled: true, now: time.Now}, nil
}

// Enabled reports whether the filter has an expression.
func (f Filter) Enabled() bool { return f.enabled }

// Match evaluates the filter against a live record. Evaluation errors count
// as no match.
func (f Filter) Match(e device.Entry) bool {
	if !f.enabled {
		return true
	}
	text := e.Record.String()
	var body any
	if err := json.Unmarshal(e.Record.Bytes(), &body); err != nil {
		body = nil
	}
	out, _, err := f.prog.Eval(map[string]any{
		"index":  int64(e.Index),
		"offset": e.Offset,
		"size":   int64(e.Record.Len()),
		"text":   text,
		"json":   body,
		"now_ms": f.now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Apply returns the entries that match, keeping at most limit of them
// (limit <= 0 means no limit).
func (f Filter) Apply(entries []device.Entry, limit int) []device.Entry {
	out := make([]device.Entry, 0, len(entries))
	for _, e := range entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
