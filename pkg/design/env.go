package design

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
)

// env evaluates numeric values against the design variables. Variables may
// refer to each other; they are evaluated on first use and cycles are
// reported as errors.
type env struct {
	raw      map[string]any
	values   map[string]float64
	visiting map[string]bool
}

func newEnv(vars map[string]any) *env {
	return &env{
		raw:      vars,
		values:   make(map[string]float64),
		visiting: make(map[string]bool),
	}
}

func (e *env) lookup(name string) (float64, bool, error) {
	if v, ok := e.values[name]; ok {
		return v, true, nil
	}
	raw, ok := e.raw[name]
	if !ok {
		return 0, false, nil
	}
	if e.visiting[name] {
		return 0, false, errors.New(errors.ErrCodeInvalidDesign, "variable %q refers to itself", name)
	}
	e.visiting[name] = true
	defer delete(e.visiting, name)

	v, err := e.number(raw)
	if err != nil {
		return 0, false, fmt.Errorf("var %s: %w", name, err)
	}
	e.values[name] = v
	return v, true, nil
}

// resolveAll evaluates every variable, in name order, and returns them.
func (e *env) resolveAll() (map[string]float64, error) {
	for _, n := range slices.Sorted(maps.Keys(e.raw)) {
		if _, _, err := e.lookup(n); err != nil {
			return nil, err
		}
	}
	return maps.Clone(e.values), nil
}

// number converts a decoded TOML/YAML value to a float.
func (e *env) number(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		return Eval(x, e.lookup)
	case nil:
		return 0, errors.New(errors.ErrCodeInvalidParameter, "missing value")
	}
	return 0, errors.New(errors.ErrCodeInvalidParameter, "expected number or expression, got %T", v)
}

// angle converts degrees to radians.
func (e *env) angle(v any) (float64, error) {
	deg, err := e.number(v)
	if err != nil {
		return 0, err
	}
	return deg * math.Pi / 180, nil
}

// vec converts a two-element list to a vector. A nil list is the zero vector.
func (e *env) vec(v []any) (r2.Vec, error) {
	if v == nil {
		return r2.Vec{}, nil
	}
	if len(v) != 2 {
		return r2.Vec{}, errors.New(errors.ErrCodeInvalidParameter, "expected [x, y], got %d values", len(v))
	}
	x, err := e.number(v[0])
	if err != nil {
		return r2.Vec{}, err
	}
	y, err := e.number(v[1])
	if err != nil {
		return r2.Vec{}, err
	}
	return r2.Vec{X: x, Y: y}, nil
}

// params gives typed access to a structure's parameters and remembers which
// ones were read, so leftovers can be reported as typos.
type params struct {
	kind string
	raw  map[string]any
	env  *env
	used map[string]bool
}

func newParams(kind string, raw map[string]any, e *env) *params {
	return &params{kind: kind, raw: raw, env: e, used: make(map[string]bool)}
}

func (p *params) float(name string) (float64, error) {
	p.used[name] = true
	v, ok := p.raw[name]
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "%s: missing parameter %q", p.kind, name)
	}
	f, err := p.env.number(v)
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", p.kind, name, err)
	}
	return f, nil
}

func (p *params) floatOr(name string, def float64) (float64, error) {
	if _, ok := p.raw[name]; !ok {
		p.used[name] = true
		return def, nil
	}
	return p.float(name)
}

func (p *params) int(name string) (int, error) {
	f, err := p.float(name)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "%s: parameter %q must be an integer, got %v", p.kind, name, f)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "%s: parameter %q is out of range, got %v", p.kind, name, f)
	}
	return int(f), nil
}

func (p *params) intOr(name string, def int) (int, error) {
	if _, ok := p.raw[name]; !ok {
		p.used[name] = true
		return def, nil
	}
	return p.int(name)
}

// unused reports parameters that no factory asked for.
func (p *params) unused() error {
	var extra []string
	for k := range p.raw {
		if !p.used[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	slices.Sort(extra)
	return errors.New(errors.ErrCodeInvalidParameter, "%s: unknown parameter(s) %s", p.kind, strings.Join(extra, ", "))
}
