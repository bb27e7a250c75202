// Package filterexpr translates AIP-160-style filter and order_by strings into
// SQL building blocks. Filters are parsed with cel-go and restricted to
// AND-joined comparisons over whitelisted fields; anything else is rejected
// before it reaches the database.
package filterexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ValueKind describes the kind of literal a field accepts.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindTimestamp ValueKind = "timestamp"
)

// Op is a supported comparison operation.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
)

// Field whitelists one filterable field: the SQL column it maps to, the
// literal kind it accepts and the operations allowed on it.
type Field struct {
	Column string
	Kind   ValueKind
	Ops    []Op
}

func (f Field) allows(op Op) bool {
	for _, o := range f.Ops {
		if o == op {
			return true
		}
	}
	return false
}

// Schema aggregates the filtering and ordering rules for one resource.
type Schema struct {
	Fields map[string]Field
	Order  map[string]OrderField
	// DefaultOrder is the order_by applied when the request carries none.
	DefaultOrder string
	// TieBreak names the Order key appended to every ordering for stability.
	TieBreak string
}

// Predicate is one parsed comparison, ready to be rendered as a WHERE clause.
// Value is a string, float64 or time.Time depending on the field kind.
type Predicate struct {
	Column string
	Op     Op
	Value  any
}

// ParseFilter parses the filter string against the schema and returns the
// AND-joined predicates. An empty filter yields no predicates.
func ParseFilter(filter string, schema Schema) ([]Predicate, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}
	if len(schema.Fields) == 0 {
		return nil, errors.New("schema has no filterable fields")
	}

	env, err := buildEnv(schema.Fields)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("convert filter ast: %w", err)
	}

	conjuncts, err := extractConjuncts(parsed.GetExpr())
	if err != nil {
		return nil, err
	}

	predicates := make([]Predicate, 0, len(conjuncts))
	for _, expr := range conjuncts {
		pred, err := parseComparison(expr)
		if err != nil {
			return nil, err
		}
		field, ok := schema.Fields[pred.field]
		if !ok {
			return nil, fmt.Errorf("field %q is not filterable", pred.field)
		}
		if !field.allows(pred.op) {
			return nil, fmt.Errorf("operator %q is not allowed for field %q", string(pred.op), pred.field)
		}
		if err := checkLiteral(field.Kind, pred.value); err != nil {
			return nil, fmt.Errorf("field %q: %w", pred.field, err)
		}
		predicates = append(predicates, Predicate{Column: field.Column, Op: pred.op, Value: pred.value})
	}
	return predicates, nil
}

func buildEnv(fields map[string]Field) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, field := range fields {
		celType, err := celTypeForKind(field.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, celType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

func celTypeForKind(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindNumber:
		return cel.DoubleType, nil
	case KindTimestamp:
		return cel.TimestampType, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

// extractConjuncts flattens nested AND chains; any other logical operator is
// rejected.
func extractConjuncts(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}
	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}
	switch call.Function {
	case "_&&_":
		var result []*exprpb.Expr
		for _, arg := range call.Args {
			nested, err := extractConjuncts(arg)
			if err != nil {
				return nil, err
			}
			result = append(result, nested...)
		}
		return result, nil
	case "_||_", "_?_:_", "!_":
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

type comparison struct {
	field string
	op    Op
	value any
}

func parseComparison(expr *exprpb.Expr) (comparison, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return comparison{}, errors.New("expected a comparison expression")
	}
	switch call.Function {
	case "_==_":
		return parseBinary(call, OpEQ)
	case "_>=_":
		return parseBinary(call, OpGTE)
	case "_<=_":
		return parseBinary(call, OpLTE)
	case "startsWith":
		return parseStartsWith(call)
	default:
		return comparison{}, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func parseBinary(call *exprpb.Expr_Call, op Op) (comparison, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return comparison{}, fmt.Errorf("operator %q expects two operands", string(op))
	}
	field, err := parseFieldIdent(call.Args[0])
	if err != nil {
		return comparison{}, err
	}
	value, err := parseLiteral(call.Args[1])
	if err != nil {
		return comparison{}, err
	}
	return comparison{field: field, op: op, value: value}, nil
}

func parseStartsWith(call *exprpb.Expr_Call) (comparison, error) {
	var fieldExpr, valueExpr *exprpb.Expr
	switch {
	case call.Target != nil && len(call.Args) == 1:
		fieldExpr, valueExpr = call.Target, call.Args[0]
	case call.Target == nil && len(call.Args) == 2:
		fieldExpr, valueExpr = call.Args[0], call.Args[1]
	default:
		return comparison{}, errors.New("startsWith expects exactly two operands")
	}
	field, err := parseFieldIdent(fieldExpr)
	if err != nil {
		return comparison{}, err
	}
	value, err := parseLiteral(valueExpr)
	if err != nil {
		return comparison{}, err
	}
	str, ok := value.(string)
	if !ok {
		return comparison{}, errors.New("startsWith requires a string literal argument")
	}
	return comparison{field: field, op: OpSW, value: str}, nil
}

func parseFieldIdent(expr *exprpb.Expr) (string, error) {
	ident := expr.GetIdentExpr()
	if ident == nil {
		return "", errors.New("left-hand side must be a field name")
	}
	return ident.GetName(), nil
}

func parseLiteral(expr *exprpb.Expr) (any, error) {
	if constant := expr.GetConstExpr(); constant != nil {
		switch constant.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return constant.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(constant.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(constant.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return constant.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", constant.ConstantKind)
		}
	}

	if call := expr.GetCallExpr(); call != nil && call.Function == "timestamp" {
		if call.Target != nil || len(call.Args) != 1 {
			return nil, errors.New("timestamp() expects a single string argument")
		}
		arg := call.Args[0].GetConstExpr()
		if arg == nil {
			return nil, errors.New("timestamp() argument must be a string literal")
		}
		str := arg.GetStringValue()
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, fmt.Errorf("timestamp literal %q is not RFC3339", str)
		}
		return t, nil
	}

	return nil, errors.New("right-hand side must be a literal or timestamp() call")
}

func checkLiteral(kind ValueKind, value any) error {
	switch kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return errors.New("expected string literal")
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return errors.New("expected numeric literal")
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return errors.New("expected timestamp() literal")
		}
	default:
		return fmt.Errorf("unsupported field kind %s", kind)
	}
	return nil
}
