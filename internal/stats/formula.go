package stats

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrEmptyFormula     = errors.New("empty formula")
	ErrUnknownToken     = errors.New("unknown formula token")
	ErrStackUnderflow   = errors.New("formula stack underflow")
	ErrLeftoverOperands = errors.New("formula leaves more than one value")
)

// LevelToken pushes the level being evaluated.
const LevelToken = "level"

type operator struct {
	arity int
	apply func(args []float64) []float64
}

// operators maps each token to its arity and result. args[0] is the first
// popped operand (the top of the stack), so binary operators compute
// args[1] op args[0].
var operators = map[string]operator{
	"+": {2, func(a []float64) []float64 { return []float64{a[1] + a[0]} }},
	"-": {2, func(a []float64) []float64 { return []float64{a[1] - a[0]} }},
	"*": {2, func(a []float64) []float64 { return []float64{a[1] * a[0]} }},
	"/": {2, func(a []float64) []float64 { return []float64{a[1] / a[0]} }},
	"power": {2, func(a []float64) []float64 {
		return []float64{math.Pow(a[1], a[0])}
	}},
	"sqrt":   {1, func(a []float64) []float64 { return []float64{math.Sqrt(a[0])} }},
	"middle": {3, middle},
}

// middle pushes every operand that lies between the other two. For three
// distinct values exactly one does. With a NaN operand none does, and NaN
// is pushed so the formula still yields one value.
func middle(a []float64) []float64 {
	first, second, third := a[0], a[1], a[2]
	out := make([]float64, 0, 1)
	if between(first, second, third) {
		out = append(out, first)
	}
	if between(second, first, third) {
		out = append(out, second)
	}
	if between(third, first, second) {
		out = append(out, third)
	}
	if len(out) == 0 {
		out = append(out, math.NaN())
	}
	return out
}

func between(v, x, y float64) bool {
	return (x <= v && v <= y) || (y <= v && v <= x)
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenLevel
	tokenOperator
)

type token struct {
	kind  tokenKind
	value float64
	op    operator
	text  string
}

// Formula is a compiled reverse-Polish expression over the level.
type Formula struct {
	tokens []token
	source string
}

// ParseFormula compiles src and checks that it is well formed: every
// operator has enough operands and exactly one value remains.
func ParseFormula(src string) (Formula, error) {
	fields := strings.Fields(src)
	if len(fields) == 0 {
		return Formula{}, ErrEmptyFormula
	}
	tokens := make([]token, 0, len(fields))
	depth := 0
	for i, f := range fields {
		var t token
		switch {
		case f == LevelToken:
			t = token{kind: tokenLevel, text: f}
			depth++
		default:
			if op, ok := operators[f]; ok {
				if depth < op.arity {
					return Formula{}, fmt.Errorf("%w: %q at position %d", ErrStackUnderflow, f, i)
				}
				t = token{kind: tokenOperator, op: op, text: f}
				depth = depth - op.arity + 1
				break
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return Formula{}, fmt.Errorf("%w: %q at position %d", ErrUnknownToken, f, i)
			}
			t = token{kind: tokenNumber, value: v, text: f}
			depth++
		}
		tokens = append(tokens, t)
	}
	if depth != 1 {
		return Formula{}, fmt.Errorf("%w: %d values", ErrLeftoverOperands, depth)
	}
	return Formula{tokens: tokens, source: strings.Join(fields, " ")}, nil
}

// MustParseFormula is like ParseFormula but panics on error.
func MustParseFormula(src string) Formula {
	f, err := ParseFormula(src)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Formula) String() string { return f.source }

// Eval runs the formula for level and truncates the result toward zero.
// A non-finite result evaluates to 0.
func (f Formula) Eval(level int) int {
	stack := make([]float64, 0, len(f.tokens))
	for _, t := range f.tokens {
		switch t.kind {
		case tokenNumber:
			stack = append(stack, t.value)
		case tokenLevel:
			stack = append(stack, float64(level))
		case tokenOperator:
			n := t.op.arity
			if len(stack) < n {
				return 0
			}
			args := make([]float64, n)
			for i := 0; i < n; i++ {
				args[i] = stack[len(stack)-1-i]
			}
			stack = append(stack[:len(stack)-n], t.op.apply(args)...)
		}
	}
	if len(stack) == 0 {
		return 0
	}
	v := stack[len(stack)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Trunc(v))
}

func fmtStatErr(stat string, err error) error {
	return fmt.Errorf("%s formula: %w", stat, err)
}
