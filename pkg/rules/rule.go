// Package rules implements the small predicate language that decides whether
// an action is offered for a node.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
	"github.com/dlclark/regexp2"
)

// Operator is the comparison a rule applies
type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not-equals"
	OpContains  Operator = "contains"
	OpMatches   Operator = "matches"
	OpExists    Operator = "exists"
)

var (
	ErrUnknownField    = errors.New("unknown rule field")
	ErrUnknownOperator = errors.New("unknown rule operator")
	ErrInvalidPattern  = errors.New("invalid rule pattern")
)

// Valid reports whether op is one of the supported operators
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpMatches, OpExists:
		return true
	}
	return false
}

// Rule is a single predicate: Field <Operator> Value
type Rule struct {
	Field    Field    `json:"field" yaml:"field" koanf:"field"`
	Operator Operator `json:"operator" yaml:"operator" koanf:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty" koanf:"value"`
}

// Always is the rule that always passes
func Always() Rule {
	return Rule{Field: FieldAlways, Operator: OpEquals, Value: true}
}

// Validate checks that the rule can be evaluated
func (r Rule) Validate() error {
	if !r.Field.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, r.Field)
	}
	if r.Field == FieldAlways || r.Field == FieldNever {
		return nil
	}
	if !r.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, r.Operator)
	}
	if r.Operator == OpMatches {
		if pattern, ok := r.Value.(string); ok {
			if _, err := compile(pattern); err != nil {
				return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
			}
		}
	}
	return nil
}

// MarshalJSON writes a compiled pattern value as its source text
func (r Rule) MarshalJSON() ([]byte, error) {
	type plain Rule
	if re, ok := r.Value.(*regexp2.Regexp); ok {
		r.Value = re.String()
	}
	return json.Marshal(plain(r))
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %v", r.Field, r.Operator, r.Value)
}

// Evaluate reports whether the rule holds for node and its context.
// A field that resolves on neither evaluates false under every operator,
// not-equals included.
func Evaluate(r Rule, node *model.Node, ctx *nodectx.NodeContext) bool {
	switch r.Field {
	case FieldAlways:
		b, ok := r.Value.(bool)
		return ok && b
	case FieldNever:
		return false
	}

	actual, found := r.Field.Resolve(node, ctx)
	if !found {
		return false
	}

	switch r.Operator {
	case OpEquals:
		return equal(actual, r.Value)
	case OpNotEquals:
		return !equal(actual, r.Value)
	case OpContains:
		return contains(actual, r.Value)
	case OpMatches:
		return matches(actual, r.Value)
	case OpExists:
		return actual != nil
	default:
		return false
	}
}

// EvaluateAll reports whether every rule holds. An empty list holds.
func EvaluateAll(rs []Rule, node *model.Node, ctx *nodectx.NodeContext) bool {
	for _, r := range rs {
		if !Evaluate(r, node, ctx) {
			return false
		}
	}
	return true
}

// equal is strict equality on scalars. Numbers compare by value regardless of
// their Go type; slices, maps and other composite values never compare equal.
func equal(a, b any) bool {
	na, okA := scalar(a)
	nb, okB := scalar(b)
	if !okA || !okB {
		return false
	}
	return na == nb
}

// scalar normalises numbers to float64 and named string/bool types to their base type
func scalar(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return rv.Bool(), true
	default:
		return nil, false
	}
}

func contains(actual, value any) bool {
	if s, ok := actual.(string); ok {
		return strings.Contains(s, fmt.Sprint(value))
	}
	rv := reflect.ValueOf(actual)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equal(rv.Index(i).Interface(), value) {
			return true
		}
	}
	return false
}

func matches(actual, value any) bool {
	s, ok := actual.(string)
	if !ok {
		return false
	}
	var re *regexp2.Regexp
	switch p := value.(type) {
	case *regexp2.Regexp:
		re = p
	case string:
		compiled, err := compile(p)
		if err != nil {
			return false
		}
		re = compiled
	default:
		return false
	}
	if re == nil {
		return false
	}
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// matchTimeout bounds a single match; a timed out match does not hold
const matchTimeout = 100 * time.Millisecond

var patternCache sync.Map // pattern -> *regexp2.Regexp

// compile parses an ECMAScript-flavoured pattern, caching the result
func compile(pattern string) (*regexp2.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	patternCache.Store(pattern, re)
	return re, nil
}

// MustCompile compiles a pattern for use as a matches value, panicking on error
func MustCompile(pattern string) *regexp2.Regexp {
	re, err := compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("rules: %v", err))
	}
	return re
}
