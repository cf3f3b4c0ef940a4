/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// This file contains functions to convert starlark values to expressions.
// Input: values from go.starlark.net/starlark
// Output: AST from github.com/bazelbuild/buildtools/build

package starlarkeval

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bazelbuild/buildtools/build"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/stackb/repl-session/pkg/format"
)

// ConvValue converts a starlark value to an expression that evaluates to
// an equal value.  Values without a literal form (functions, modules,
// builtins) become their String() representation.
func ConvValue(value starlark.Value) build.Expr {
	switch t := value.(type) {
	case starlark.NoneType:
		return &build.Ident{Name: "None"}
	case starlark.Bool:
		if t {
			return &build.Ident{Name: "True"}
		}
		return &build.Ident{Name: "False"}
	case starlark.Int:
		if val, ok := t.Int64(); ok {
			return &build.LiteralExpr{
				Token: strconv.FormatInt(val, 10),
			}
		}
		return &build.LiteralExpr{Token: t.String()}
	case starlark.Float:
		return &build.LiteralExpr{Token: t.String()}
	case starlark.String:
		return &build.StringExpr{
			Value:       t.GoString(),
			TripleQuote: strings.Contains(t.GoString(), "\n"),
		}
	case *starlark.List:
		list := make([]build.Expr, 0, t.Len())
		for i := 0; i < t.Len(); i++ {
			list = append(list, ConvValue(t.Index(i)))
		}
		return &build.ListExpr{List: list}
	case starlark.Tuple:
		list := make([]build.Expr, 0, len(t))
		for _, v := range t {
			list = append(list, ConvValue(v))
		}
		return &build.TupleExpr{List: list, ForceCompact: true}
	case *starlark.Dict:
		list := make([]*build.KeyValueExpr, 0, t.Len())
		for _, item := range t.Items() {
			list = append(list, &build.KeyValueExpr{
				Key:   ConvValue(item[0]),
				Value: ConvValue(item[1]),
			})
		}
		return &build.DictExpr{List: list}
	case *starlarkstruct.Struct:
		names := t.AttrNames()
		sort.Strings(names)
		args := make([]build.Expr, 0, len(names))
		for _, name := range names {
			v, err := t.Attr(name)
			if err != nil {
				continue
			}
			args = append(args, &build.AssignExpr{
				LHS: &build.Ident{Name: name},
				Op:  "=",
				RHS: ConvValue(v),
			})
		}
		return &build.CallExpr{
			X:            &build.Ident{Name: "struct"},
			List:         args,
			ForceCompact: true,
		}
	}
	return &build.LiteralExpr{Token: value.String()}
}

// Formatter renders starlark values in source form.  Other values are
// rendered by format.Default.
var Formatter format.Formatter = format.FormatterFunc(formatValue)

func formatValue(value any) string {
	v, ok := value.(starlark.Value)
	if !ok {
		return format.Default.Format(value)
	}
	// TypeDefault keeps new sequences on one line
	f := &build.File{Type: build.TypeDefault, Stmt: []build.Expr{ConvValue(v)}}
	return strings.TrimSpace(build.FormatString(f))
}
