// Package expr implements the boolean query language used to search
// annotations. A query is one or more comparisons of the form
//
//	<variable> <comparison> '<value>'
//
// combined with parentheses and the case-insensitive operators and, or and
// not, for example:
//
//	(name = 'john') and (age < '20')
//	not (status = 'CURRENT')
//
// Parsed expressions re-serialize to a canonical fully parenthesized form and
// evaluate against any backend through a caller-supplied resolver.
package expr

import (
	"fmt"
)

// Comparison operators accepted in a simple expression. The ordering
// comparisons are lexicographic on the raw string value; annotation values
// are always strings and are never compared numerically.
const (
	OpEq = "="
	OpLt = "<"
	OpGt = ">"
	OpLe = "<="
	OpGe = ">="
	OpNe = "!="
)

// Expression is the closed set of query tree nodes: Comparison, Binary and
// Negation. The marker method keeps the union sealed to this package.
type Expression interface {
	isExpression()

	// String returns the canonical form of the expression. Binary and
	// negation operands are always parenthesized, so the output of String
	// parses back to an identical tree.
	String() string
}

// Comparison is a single <variable> <operator> <value> leaf.
type Comparison struct {
	Variable string
	Operator string
	Value    string
}

// Binary combines two subexpressions with "and" or "or".
type Binary struct {
	Left  Expression
	Op    string // "and" or "or"
	Right Expression
}

// Negation inverts a subexpression.
type Negation struct {
	Inner Expression
}

func (*Comparison) isExpression() {}
func (*Binary) isExpression()     {}
func (*Negation) isExpression()   {}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s '%s'", c.Variable, c.Operator, c.Value)
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s) %s (%s)", b.Left.String(), b.Op, b.Right.String())
}

func (n *Negation) String() string {
	return fmt.Sprintf("not (%s)", n.Inner.String())
}

// Variables returns every variable name referenced by the expression in
// left-to-right traversal order. Duplicates are preserved.
func Variables(e Expression) []string {
	switch node := e.(type) {
	case *Comparison:
		return []string{node.Variable}
	case *Binary:
		return append(Variables(node.Left), Variables(node.Right)...)
	case *Negation:
		return Variables(node.Inner)
	default:
		panic(fmt.Sprintf("expr: unknown expression node %T", e))
	}
}

// Predicate is the combinable result of resolving an expression against some
// backend: an in-memory account set, a database query fragment, or anything
// else that supports boolean algebra.
type Predicate interface {
	And(Predicate) Predicate
	Or(Predicate) Predicate
	Not() Predicate
}

// Resolver converts one comparison leaf into a Predicate.
type Resolver func(variable, operator, value string) (Predicate, error)

// Evaluate walks the expression tree, resolving each comparison leaf through
// resolve and combining the results with And/Or/Not.
func Evaluate(e Expression, resolve Resolver) (Predicate, error) {
	switch node := e.(type) {
	case *Comparison:
		return resolve(node.Variable, node.Operator, node.Value)
	case *Binary:
		left, err := Evaluate(node.Left, resolve)
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(node.Right, resolve)
		if err != nil {
			return nil, err
		}
		if node.Op == "and" {
			return left.And(right), nil
		}
		return left.Or(right), nil
	case *Negation:
		inner, err := Evaluate(node.Inner, resolve)
		if err != nil {
			return nil, err
		}
		return inner.Not(), nil
	default:
		panic(fmt.Sprintf("expr: unknown expression node %T", e))
	}
}
