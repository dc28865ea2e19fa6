package data

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/xwb1989/sqlparser"
)

// compileFilter parses a SQL boolean expression over this table's fields and
// returns a predicate evaluating it per row.
func (t *Table) compileFilter(filter string) (func(*Row) (bool, error), error) {
	stmt, err := sqlparser.Parse("SELECT * FROM t WHERE " + filter)
	if err != nil {
		return nil, NewSchemaError("invalid filter: %s", filter)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok || sel.Where == nil {
		return nil, NewSchemaError("invalid filter: %s", filter)
	}

	expr := sel.Where.Expr
	return func(r *Row) (bool, error) {
		return t.evaluateExpr(expr, r)
	}, nil
}

func (t *Table) evaluateExpr(expr sqlparser.Expr, r *Row) (bool, error) {
	switch e := expr.(type) {
	case *sqlparser.ComparisonExpr:
		lVal, err := t.evaluateOperand(e.Left, r)
		if err != nil {
			return false, err
		}
		rVal, err := t.evaluateOperand(e.Right, r)
		if err != nil {
			return false, err
		}
		return compareOperands(e.Operator, lVal, rVal)
	case *sqlparser.AndExpr:
		left, err := t.evaluateExpr(e.Left, r)
		if err != nil {
			return false, err
		}
		if !left {
			return false, nil
		}
		return t.evaluateExpr(e.Right, r)
	case *sqlparser.OrExpr:
		left, err := t.evaluateExpr(e.Left, r)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return t.evaluateExpr(e.Right, r)
	case *sqlparser.NotExpr:
		v, err := t.evaluateExpr(e.Expr, r)
		if err != nil {
			return false, err
		}
		return !v, nil
	case *sqlparser.ParenExpr:
		return t.evaluateExpr(e.Expr, r)
	default:
		return false, errors.Errorf("Not supported expression: %v", expr)
	}
}

func (t *Table) evaluateOperand(expr sqlparser.Expr, r *Row) (interface{}, error) {
	switch e := expr.(type) {
	case *sqlparser.ColName:
		m, err := t.resolveField(e.Name.String())
		if err != nil {
			return nil, err
		}
		return r.fields[m.Name], nil
	case *sqlparser.SQLVal:
		switch e.Type {
		case sqlparser.IntVal, sqlparser.FloatVal:
			n, err := strconv.ParseFloat(string(e.Val), 64)
			if err != nil {
				return nil, errors.Wrap(err, "invalid numeric literal")
			}
			return n, nil
		default:
			return string(e.Val), nil
		}
	case sqlparser.BoolVal:
		return bool(e), nil
	case *sqlparser.NullVal:
		return nil, nil
	default:
		return nil, errors.Errorf("Not supported expression: %v", expr)
	}
}

func compareOperands(op string, lVal, rVal interface{}) (bool, error) {
	switch op {
	case "=":
		return sameValue(lVal, rVal), nil
	case "!=", "<>":
		return !sameValue(lVal, rVal), nil
	}

	if lVal == nil || rVal == nil {
		return false, nil
	}
	c := compareValues(lVal, rVal, true)
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	default:
		return false, errors.Errorf("not supported operator in filter: %s", op)
	}
}
