package starlarkeval

import (
	"strconv"

	"go.starlark.net/syntax"
)

// bindTrailingExpr replaces a final expression statement with an
// assignment to resultName and reports whether it did so.
func bindTrailingExpr(f *syntax.File) bool {
	if len(f.Stmts) == 0 {
		return false
	}
	last := len(f.Stmts) - 1
	stmt, ok := f.Stmts[last].(*syntax.ExprStmt)
	if !ok {
		return false
	}
	start, _ := stmt.X.Span()
	f.Stmts[last] = &syntax.AssignStmt{
		OpPos: start,
		Op:    syntax.EQ,
		LHS:   &syntax.Ident{NamePos: start, Name: resultName},
		RHS:   stmt.X,
	}
	return true
}

// seedPriors prepends `name = __prior__("name")` for each name so that a
// rebinding submission starts from the value its predecessors left.
func seedPriors(f *syntax.File, names []string) {
	if len(names) == 0 || len(f.Stmts) == 0 {
		return
	}
	pos, _ := f.Stmts[0].Span()
	seeds := make([]syntax.Stmt, 0, len(names)+len(f.Stmts))
	for _, name := range names {
		seeds = append(seeds, &syntax.AssignStmt{
			OpPos: pos,
			Op:    syntax.EQ,
			LHS:   &syntax.Ident{NamePos: pos, Name: name},
			RHS: &syntax.CallExpr{
				Fn:     &syntax.Ident{NamePos: pos, Name: priorBuiltin},
				Lparen: pos,
				Args: []syntax.Expr{
					&syntax.Literal{
						Token:    syntax.STRING,
						TokenPos: pos,
						Raw:      strconv.Quote(name),
						Value:    name,
					},
				},
				Rparen: pos,
			},
		})
	}
	f.Stmts = append(seeds, f.Stmts...)
}
