package source

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-collection-cache/query"
	"github.com/uptrace/bun"
)

func applyFilters(q *bun.SelectQuery, filters []query.Filter) *bun.SelectQuery {
	for _, f := range filters {
		q = applyFilter(q, f)
	}
	return q
}

// applyFilter joins f to the previous predicate with its operand. bun drops
// the separator of the first predicate in a group.
func applyFilter(q *bun.SelectQuery, f query.Filter) *bun.SelectQuery {
	f = f.Normalize()

	if f.IsGroup() && !f.IsRaw() {
		sep := " AND "
		if f.Operand == query.Or {
			sep = " OR "
		}
		return q.WhereGroup(sep, func(q *bun.SelectQuery) *bun.SelectQuery {
			return applyFilters(q, f.Filters)
		})
	}

	expr, args := filterExpr(f)
	if f.Operand == query.Or {
		return q.WhereOr(expr, args...)
	}
	return q.Where(expr, args...)
}

func filterExpr(f query.Filter) (string, []any) {
	if f.IsRaw() {
		return f.Expression, f.Args
	}

	col, args := columnExpr(f.Table, f.Property)
	if f.CaseInsensitive {
		col = "LOWER(" + col + ")"
	}

	op := string(f.Operator)
	switch f.Operator {
	case query.OpIsNull, query.OpIsNotNull:
		return col + " " + op, args
	case query.OpIn, query.OpNotIn:
		return col + " " + op + " (?)", append(args, bun.In(f.Value))
	}

	placeholder := "?"
	if f.CaseInsensitive {
		placeholder = "LOWER(?)"
	}
	return col + " " + op + " " + placeholder, append(args, f.Value)
}

func applyOrders(q *bun.SelectQuery, orders []query.Order) *bun.SelectQuery {
	for _, o := range orders {
		o = o.Normalize()

		if strings.TrimSpace(o.Expression) != "" {
			q = q.OrderExpr(o.Expression)
			continue
		}

		col, args := columnExpr(o.Table, o.Property)
		dir := strings.ToUpper(string(o.Direction))

		if len(o.Values) > 0 {
			var b strings.Builder
			b.WriteString("CASE ")
			b.WriteString(col)
			for i, v := range o.Values {
				b.WriteString(" WHEN ? THEN ")
				b.WriteString(strconv.Itoa(i))
				args = append(args, v)
			}
			b.WriteString(" ELSE ")
			b.WriteString(strconv.Itoa(len(o.Values)))
			b.WriteString(" END ")
			b.WriteString(dir)
			q = q.OrderExpr(b.String(), args...)
			continue
		}

		q = q.OrderExpr(col+" "+dir, args...)
	}
	return q
}

func columnExpr(table, property string) (string, []any) {
	if table != "" {
		return "?.?", []any{bun.Ident(table), bun.Ident(property)}
	}
	return "?", []any{bun.Ident(property)}
}
