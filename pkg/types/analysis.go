package types

import (
	"sort"
	"strings"
)

// Equivalent reports whether a and b are the same tree, ignoring positions
// and Expression grouping.
func Equivalent(a, b Node) bool {
	a, b = Unwrap(a), Unwrap(b)
	switch x := a.(type) {
	case nil:
		return b == nil
	case *Program:
		y, ok := b.(*Program)
		if !ok || len(x.Statements) != len(y.Statements) {
			return false
		}
		for i := range x.Statements {
			if !Equivalent(x.Statements[i], y.Statements[i]) {
				return false
			}
		}
		return true
	case *Statement:
		y, ok := b.(*Statement)
		return ok && x.Kind == y.Kind && x.Name == y.Name && Equivalent(x.Body, y.Body)
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && Equivalent(x.Left, y.Left) && Equivalent(x.Right, y.Right)
	case *UnaryOp:
		y, ok := b.(*UnaryOp)
		return ok && x.Op == y.Op && Equivalent(x.Operand, y.Operand)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		return ok && x.Name == y.Name && equivalentAll(x.Args, y.Args)
	case *Quantifier:
		y, ok := b.(*Quantifier)
		return ok && x.Kind == y.Kind && x.Variable == y.Variable &&
			Equivalent(x.Domain, y.Domain) && Equivalent(x.Predicate, y.Predicate)
	case *Conditional:
		y, ok := b.(*Conditional)
		return ok && Equivalent(x.Test, y.Test) && Equivalent(x.Then, y.Then) && Equivalent(x.Else, y.Else)
	case *Variable:
		y, ok := b.(*Variable)
		return ok && x.Name == y.Name
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Value.Kind() == y.Value.Kind() && Compare(x.Value, y.Value) == 0
	case *Collection:
		y, ok := b.(*Collection)
		return ok && equivalentAll(x.Items, y.Items)
	case *ObjectLiteral:
		y, ok := b.(*ObjectLiteral)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Key != y.Fields[i].Key || !Equivalent(x.Fields[i].Value, y.Fields[i].Value) {
				return false
			}
		}
		return true
	case *Lambda:
		y, ok := b.(*Lambda)
		return ok && strings.Join(x.Params, ",") == strings.Join(y.Params, ",") && Equivalent(x.Body, y.Body)
	case *Let:
		y, ok := b.(*Let)
		return ok && x.Name == y.Name && Equivalent(x.Value, y.Value) && Equivalent(x.Body, y.Body)
	}
	return false
}

func equivalentAll(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equivalent(a[i], b[i]) {
			return false
		}
	}
	return true
}

// FreeVariables returns the sorted names of Variable nodes in n that are not
// bound by an enclosing quantifier, lambda or let inside n.
func FreeVariables(n Node) []string {
	vars, _ := FreeNames(n)
	return vars
}

// FreeNames returns the free variable names and the free call names of n,
// each sorted and deduplicated. A call name is free unless a binder inside n
// introduces it.
func FreeNames(n Node) (vars, calls []string) {
	v := map[string]bool{}
	c := map[string]bool{}
	collectFree(n, map[string]int{}, v, c)
	return sortedKeys(v), sortedKeys(c)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func isBound(bound map[string]int, name string) bool {
	if bound[name] > 0 {
		return true
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		return bound[name[:i]] > 0
	}
	return false
}

func collectFree(n Node, bound map[string]int, vars, calls map[string]bool) {
	with := func(names []string, fn func()) {
		for _, name := range names {
			bound[name]++
		}
		fn()
		for _, name := range names {
			bound[name]--
		}
	}
	switch n := n.(type) {
	case *Program:
		// let statements scope over the statements that follow them
		var lets []string
		for _, s := range n.Statements {
			stmt := s
			with(lets, func() { collectFree(stmt.Body, bound, vars, calls) })
			if s.Kind == StmtLet {
				lets = append(lets, s.Name)
			}
		}
	case *Statement:
		collectFree(n.Body, bound, vars, calls)
	case *Expression:
		collectFree(n.Inner, bound, vars, calls)
	case *BinaryOp:
		collectFree(n.Left, bound, vars, calls)
		collectFree(n.Right, bound, vars, calls)
	case *UnaryOp:
		collectFree(n.Operand, bound, vars, calls)
	case *FunctionCall:
		if !isBound(bound, n.Name) {
			calls[n.Name] = true
		}
		for _, a := range n.Args {
			collectFree(a, bound, vars, calls)
		}
	case *Quantifier:
		collectFree(n.Domain, bound, vars, calls)
		with([]string{n.Variable}, func() { collectFree(n.Predicate, bound, vars, calls) })
	case *Conditional:
		collectFree(n.Test, bound, vars, calls)
		collectFree(n.Then, bound, vars, calls)
		collectFree(n.Else, bound, vars, calls)
	case *Variable:
		if !isBound(bound, n.Name) {
			vars[n.Name] = true
		}
	case *Collection:
		for _, item := range n.Items {
			collectFree(item, bound, vars, calls)
		}
	case *ObjectLiteral:
		for _, f := range n.Fields {
			collectFree(f.Value, bound, vars, calls)
		}
	case *Lambda:
		with(n.Params, func() { collectFree(n.Body, bound, vars, calls) })
	case *Let:
		collectFree(n.Value, bound, vars, calls)
		with([]string{n.Name}, func() { collectFree(n.Body, bound, vars, calls) })
	}
}

// Substitute returns a copy of n in which every free occurrence of the
// variable name is replaced by a copy of replacement. Substitution stops
// under binders that rebind name. Call names are never substituted.
func Substitute(n Node, name string, replacement Node) Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *Program:
		out := &Program{Position: n.Position, Statements: make([]*Statement, len(n.Statements))}
		shadowed := false
		for i, s := range n.Statements {
			if shadowed {
				out.Statements[i] = Clone(s).(*Statement)
				continue
			}
			out.Statements[i] = Substitute(s, name, replacement).(*Statement)
			if s.Kind == StmtLet && s.Name == name {
				shadowed = true
			}
		}
		return out
	case *Statement:
		return &Statement{Position: n.Position, Kind: n.Kind, Name: n.Name, Body: Substitute(n.Body, name, replacement)}
	case *Expression:
		return &Expression{Position: n.Position, Inner: Substitute(n.Inner, name, replacement)}
	case *BinaryOp:
		return &BinaryOp{Position: n.Position, Op: n.Op,
			Left:  Substitute(n.Left, name, replacement),
			Right: Substitute(n.Right, name, replacement)}
	case *UnaryOp:
		return &UnaryOp{Position: n.Position, Op: n.Op, Operand: Substitute(n.Operand, name, replacement)}
	case *FunctionCall:
		return &FunctionCall{Position: n.Position, Name: n.Name, Args: substituteAll(n.Args, name, replacement)}
	case *Quantifier:
		q := &Quantifier{Position: n.Position, Kind: n.Kind, Variable: n.Variable,
			Domain: Substitute(n.Domain, name, replacement)}
		if n.Variable == name {
			q.Predicate = Clone(n.Predicate)
		} else {
			q.Predicate = Substitute(n.Predicate, name, replacement)
		}
		return q
	case *Conditional:
		return &Conditional{Position: n.Position,
			Test: Substitute(n.Test, name, replacement),
			Then: Substitute(n.Then, name, replacement),
			Else: Substitute(n.Else, name, replacement)}
	case *Variable:
		if n.Name == name {
			return Clone(replacement)
		}
		return &Variable{Position: n.Position, Name: n.Name}
	case *Literal:
		return &Literal{Position: n.Position, Value: n.Value}
	case *Collection:
		return &Collection{Position: n.Position, Items: substituteAll(n.Items, name, replacement)}
	case *ObjectLiteral:
		o := &ObjectLiteral{Position: n.Position, Fields: make([]ObjectField, len(n.Fields))}
		for i, f := range n.Fields {
			o.Fields[i] = ObjectField{Key: f.Key, Value: Substitute(f.Value, name, replacement)}
		}
		return o
	case *Lambda:
		l := &Lambda{Position: n.Position, Params: append([]string(nil), n.Params...)}
		for _, p := range n.Params {
			if p == name {
				l.Body = Clone(n.Body)
				return l
			}
		}
		l.Body = Substitute(n.Body, name, replacement)
		return l
	case *Let:
		l := &Let{Position: n.Position, Name: n.Name, Value: Substitute(n.Value, name, replacement)}
		if n.Name == name {
			l.Body = Clone(n.Body)
		} else {
			l.Body = Substitute(n.Body, name, replacement)
		}
		return l
	}
	return n
}

func substituteAll(nodes []Node, name string, replacement Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Substitute(n, name, replacement)
	}
	return out
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	// Substituting a name that cannot occur copies every node.
	return Substitute(n, "", nil)
}
