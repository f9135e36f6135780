package lineage

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/ajitpratap0/databuilder/pkg/errors"
)

// GetColumns parses sql and returns the resolved output columns of every
// SELECT in it, in statement order.
func GetColumns(sql string) ([]Column, error) {
	result, err := pg_query.Parse(normalize(sql))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to parse SQL")
	}

	w := &walker{ctes: make(map[string]relation)}
	var out []Column
	for _, stmt := range result.Stmts {
		out = append(out, w.statement(stmt.Stmt).columns...)
	}
	return out, nil
}

// ref is a column named in a SELECT list, not yet resolved.
type ref struct {
	qualifier string
	name      string
	alias     string
	star      bool
}

// outputName is the name an enclosing query sees the column under.
func (r ref) outputName() string { return coalesce(r.alias, r.name) }

// relation is the resolved output of a query. names[i] is the name
// columns[i] is visible under to an enclosing query.
type relation struct {
	columns []Column
	names   []string
}

func (r *relation) add(c Column, name string) {
	r.columns = append(r.columns, c)
	r.names = append(r.names, name)
}

func (r relation) concat(o relation) relation {
	return relation{
		columns: append(r.columns, o.columns...),
		names:   append(r.names, o.names...),
	}
}

// source is one FROM item: a physical table or a derived relation whose
// columns are already resolved.
type source struct {
	alias string
	table *Table
	rel   relation

	// opaque lists the columns of a table function; they resolve to nothing.
	opaque []string
}

func (s source) derived() bool { return s.table == nil }

// walker keeps the SELECT lists of enclosing queries on an explicit stack
// while a nested subquery is being resolved.
type walker struct {
	stack [][]ref
	ctes  map[string]relation
}

func (w *walker) push(refs []ref) { w.stack = append(w.stack, refs) }

func (w *walker) pop() []ref {
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	return top
}

func (w *walker) statement(node *pg_query.Node) relation {
	if node == nil {
		return relation{}
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return w.selectStmt(n.SelectStmt)
	case *pg_query.Node_InsertStmt:
		return w.statement(n.InsertStmt.SelectStmt)
	case *pg_query.Node_CreateTableAsStmt:
		return w.statement(n.CreateTableAsStmt.Query)
	case *pg_query.Node_ViewStmt:
		return w.statement(n.ViewStmt.Query)
	}
	return relation{}
}

func (w *walker) selectStmt(sel *pg_query.SelectStmt) relation {
	if sel == nil {
		return relation{}
	}
	if sel.Larg != nil || sel.Rarg != nil {
		return w.selectStmt(sel.Larg).concat(w.selectStmt(sel.Rarg))
	}

	if sel.WithClause != nil {
		for _, c := range sel.WithClause.Ctes {
			if cte, ok := c.Node.(*pg_query.Node_CommonTableExpr); ok {
				w.ctes[upper(cte.CommonTableExpr.Ctename)] = w.statement(cte.CommonTableExpr.Ctequery)
			}
		}
	}

	w.push(targets(sel.TargetList))
	var sources []source
	for _, from := range sel.FromClause {
		sources = append(sources, w.fromItem(from)...)
	}
	return resolve(w.pop(), sources)
}

func (w *walker) fromItem(node *pg_query.Node) []source {
	if node == nil {
		return nil
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_RangeVar:
		rv := n.RangeVar
		name := upper(rv.Relname)
		alias := ""
		if rv.Alias != nil {
			alias = upper(rv.Alias.Aliasname)
		}
		if rv.Schemaname == "" {
			if rel, ok := w.ctes[name]; ok {
				return []source{{alias: coalesce(alias, name), rel: rel}}
			}
		}
		t := &Table{Name: name, Schema: upper(rv.Schemaname), Alias: alias}
		return []source{{alias: coalesce(alias, name), table: t}}

	case *pg_query.Node_JoinExpr:
		return append(w.fromItem(n.JoinExpr.Larg), w.fromItem(n.JoinExpr.Rarg)...)

	case *pg_query.Node_RangeSubselect:
		alias := ""
		if n.RangeSubselect.Alias != nil {
			alias = upper(n.RangeSubselect.Alias.Aliasname)
		}
		return []source{{alias: alias, rel: w.statement(n.RangeSubselect.Subquery)}}

	case *pg_query.Node_RangeTableSample:
		return w.fromItem(n.RangeTableSample.Relation)

	case *pg_query.Node_RangeFunction:
		s := source{}
		if a := n.RangeFunction.Alias; a != nil {
			s.alias = upper(a.Aliasname)
			for _, c := range a.Colnames {
				s.opaque = append(s.opaque, upper(c.GetString_().GetSval()))
			}
		}
		return []source{s}
	}
	return nil
}

// targets collects the column references of a SELECT list. An expression
// contributes every column it mentions, each under the target's alias.
func targets(list []*pg_query.Node) []ref {
	var out []ref
	for _, item := range list {
		rt := item.GetResTarget()
		if rt == nil {
			continue
		}
		alias := upper(rt.Name)
		for _, cr := range columnRefs(rt.Val, nil, nil) {
			if r, ok := toRef(cr, alias); ok {
				out = append(out, r)
			}
		}
	}
	return out
}

// columnRefs appends the column references under node. Names in bound are
// lambda parameters and are not columns.
func columnRefs(node *pg_query.Node, acc []*pg_query.ColumnRef, bound map[string]bool) []*pg_query.ColumnRef {
	if node == nil {
		return acc
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_ColumnRef:
		if !bound[firstField(n.ColumnRef)] {
			acc = append(acc, n.ColumnRef)
		}
	case *pg_query.Node_FuncCall:
		for _, a := range n.FuncCall.Args {
			acc = columnRefs(a, acc, bind(bound, lambdaParams(a)))
		}
	case *pg_query.Node_TypeCast:
		acc = columnRefs(n.TypeCast.Arg, acc, bound)
	case *pg_query.Node_AExpr:
		if !isLambda(n.AExpr) {
			acc = columnRefs(n.AExpr.Lexpr, acc, bound)
		}
		acc = columnRefs(n.AExpr.Rexpr, acc, bound)
	case *pg_query.Node_BoolExpr:
		for _, a := range n.BoolExpr.Args {
			acc = columnRefs(a, acc, bound)
		}
	case *pg_query.Node_CoalesceExpr:
		for _, a := range n.CoalesceExpr.Args {
			acc = columnRefs(a, acc, bound)
		}
	case *pg_query.Node_MinMaxExpr:
		for _, a := range n.MinMaxExpr.Args {
			acc = columnRefs(a, acc, bound)
		}
	case *pg_query.Node_RowExpr:
		for _, a := range n.RowExpr.Args {
			acc = columnRefs(a, acc, bound)
		}
	case *pg_query.Node_AArrayExpr:
		for _, a := range n.AArrayExpr.Elements {
			acc = columnRefs(a, acc, bound)
		}
	case *pg_query.Node_AIndirection:
		acc = columnRefs(n.AIndirection.Arg, acc, bound)
		for _, ind := range n.AIndirection.Indirection {
			if idx := ind.GetAIndices(); idx != nil {
				acc = columnRefs(idx.Lidx, acc, bound)
				acc = columnRefs(idx.Uidx, acc, bound)
			}
		}
	case *pg_query.Node_NullTest:
		acc = columnRefs(n.NullTest.Arg, acc, bound)
	case *pg_query.Node_CaseExpr:
		acc = columnRefs(n.CaseExpr.Arg, acc, bound)
		for _, a := range n.CaseExpr.Args {
			acc = columnRefs(a, acc, bound)
		}
		acc = columnRefs(n.CaseExpr.Defresult, acc, bound)
	case *pg_query.Node_CaseWhen:
		acc = columnRefs(n.CaseWhen.Expr, acc, bound)
		acc = columnRefs(n.CaseWhen.Result, acc, bound)
	}
	return acc
}

// isLambda reports whether e is a Presto lambda "x -> body". The Postgres
// grammar reads it as a "->" operator; a constant right side is a JSON
// field access instead.
func isLambda(e *pg_query.A_Expr) bool {
	if e.Kind != pg_query.A_Expr_Kind_AEXPR_OP || len(e.Name) == 0 {
		return false
	}
	if e.Name[len(e.Name)-1].GetString_().GetSval() != "->" {
		return false
	}
	return e.Rexpr.GetAConst() == nil
}

// lambdaParams returns the parameters of a lambda argument. "->" binds
// tighter than comparisons and AND/OR, so the arrow sits on the left spine
// of the argument expression.
func lambdaParams(node *pg_query.Node) []string {
	for node != nil {
		switch n := node.Node.(type) {
		case *pg_query.Node_AExpr:
			if isLambda(n.AExpr) {
				return paramNames(n.AExpr.Lexpr)
			}
			node = n.AExpr.Lexpr
		case *pg_query.Node_BoolExpr:
			if len(n.BoolExpr.Args) == 0 {
				return nil
			}
			node = n.BoolExpr.Args[0]
		default:
			return nil
		}
	}
	return nil
}

func paramNames(node *pg_query.Node) []string {
	if cr := node.GetColumnRef(); cr != nil {
		if len(cr.Fields) == 1 {
			return []string{firstField(cr)}
		}
		return nil
	}
	var names []string
	if row := node.GetRowExpr(); row != nil {
		for _, a := range row.Args {
			names = append(names, paramNames(a)...)
		}
	}
	return names
}

func bind(bound map[string]bool, params []string) map[string]bool {
	if len(params) == 0 {
		return bound
	}
	out := make(map[string]bool, len(bound)+len(params))
	for k := range bound {
		out[k] = true
	}
	for _, p := range params {
		out[p] = true
	}
	return out
}

func firstField(cr *pg_query.ColumnRef) string {
	if len(cr.Fields) == 0 {
		return ""
	}
	return upper(cr.Fields[0].GetString_().GetSval())
}

func toRef(cr *pg_query.ColumnRef, alias string) (ref, bool) {
	var parts []string
	star := false
	for _, f := range cr.Fields {
		switch v := f.Node.(type) {
		case *pg_query.Node_String_:
			parts = append(parts, upper(v.String_.Sval))
		case *pg_query.Node_AStar:
			star = true
		}
	}
	if star {
		r := ref{star: true, alias: alias}
		if len(parts) > 0 {
			r.qualifier = parts[len(parts)-1]
		}
		return r, true
	}
	if len(parts) == 0 {
		return ref{}, false
	}
	r := ref{name: parts[len(parts)-1], alias: alias}
	if len(parts) > 1 {
		r.qualifier = parts[len(parts)-2]
	}
	return r, true
}

func upper(s string) string { return strings.ToUpper(s) }

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
