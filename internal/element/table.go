// Package element holds the damage multiplier table between attacking and
// defending element types.
package element

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

var (
	ErrMalformedTable   = errors.New("malformed effectiveness table")
	ErrUnknownElement   = errors.New("unknown element")
	ErrDuplicateElement = errors.New("duplicate element")
)

// A Caser carries state and must not be shared between goroutines.
var folders = sync.Pool{New: func() any {
	c := cases.Fold()
	return &c
}}

// Key normalises an element name for lookup. Names compare case-insensitively.
func Key(name string) string {
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(strings.TrimSpace(name))
}

// Table is an n x n multiplier matrix. It is read-only once built and safe
// for concurrent use.
type Table struct {
	names  []string
	index  map[string]int // by Key
	exact  map[string]int // by declared name
	values []float64
}

// NewTable builds a table from header names and a row-major list of n*n
// multipliers: row i holds element i attacking every element in header order.
func NewTable(names []string, values []float64) (*Table, error) {
	n := len(names)
	if n == 0 {
		return nil, fmt.Errorf("%w: no elements", ErrMalformedTable)
	}
	if len(values) != n*n {
		return nil, fmt.Errorf("%w: %d elements need %d values, got %d", ErrMalformedTable, n, n*n, len(values))
	}
	t := &Table{
		names:  make([]string, n),
		index:  make(map[string]int, n),
		exact:  make(map[string]int, n),
		values: make([]float64, len(values)),
	}
	for i, name := range names {
		k := Key(name)
		if k == "" {
			return nil, fmt.Errorf("%w: empty element name at column %d", ErrMalformedTable, i)
		}
		if _, dup := t.index[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateElement, name)
		}
		t.index[k] = i
		t.names[i] = strings.TrimSpace(name)
		t.exact[t.names[i]] = i
	}
	for i, v := range values {
		if !(v > 0) {
			return nil, fmt.Errorf("%w: %s vs %s is %v, want > 0",
				ErrMalformedTable, t.names[i/n], t.names[i%n], v)
		}
		t.values[i] = v
	}
	return t, nil
}

// Names returns the element names in header order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len is the number of elements.
func (t *Table) Len() int { return len(t.names) }

// lookup finds name, folding case only when it differs from the header.
func (t *Table) lookup(name string) (int, bool) {
	if i, ok := t.exact[name]; ok {
		return i, true
	}
	i, ok := t.index[Key(name)]
	return i, ok
}

// Has reports whether name is a declared element.
func (t *Table) Has(name string) bool {
	_, ok := t.lookup(name)
	return ok
}

// Effectiveness returns the multiplier for attacking hitting defending.
func (t *Table) Effectiveness(attacking, defending string) (float64, error) {
	a, ok := t.lookup(attacking)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownElement, attacking)
	}
	d, ok := t.lookup(defending)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownElement, defending)
	}
	return t.values[a*len(t.names)+d], nil
}

// MustEffectiveness is Effectiveness for elements already validated
// against the table. It panics on an unknown element.
func (t *Table) MustEffectiveness(attacking, defending string) float64 {
	v, err := t.Effectiveness(attacking, defending)
	if err != nil {
		panic(err)
	}
	return v
}
