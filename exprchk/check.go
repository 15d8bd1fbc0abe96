package exprchk

import (
	"fmt"

	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/internal/exactval"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

// CheckExpr type-checks e in a single-value context, consulting hint for
// untyped constants and empty composite literals. This is the workhorse
// every statement form (IfStmt's Cond, AssignStmt's Rhs, ...) calls
// through.
func CheckExpr(env Env, hint Hint, e ast.Expr) Operand {
	if e == nil {
		return Operand{Mode: NoValue}
	}
	switch x := e.(type) {
	case *ast.Ident:
		return checkIdent(env, x)
	case *ast.BasicLit:
		return checkBasicLit(x)
	case *ast.BinaryExpr:
		return CheckBinaryExpr(env, hint, x)
	case *ast.CallExpr:
		results := CheckMultiExpr(env, x)
		if len(results) == 0 {
			return Operand{Mode: NoValue, Expr: e}
		}
		if len(results) > 1 {
			env.Errorf(e.Pos(), "multi-valued call used in single-value context")
			return InvalidOperand(e)
		}
		return results[0]
	case *ast.SelectorExpr:
		return CheckSelector(env, x)
	case *ast.CompoundLit:
		return checkCompoundLit(env, hint, x)
	default:
		env.Errorf(e.Pos(), "invalid expression")
		return InvalidOperand(e)
	}
}

func checkIdent(env Env, id *ast.Ident) Operand {
	ent, ok := env.Lookup(id.Name)
	if !ok {
		env.Errorf(id.Pos(), "undefined: %s", id.Name)
		return InvalidOperand(id)
	}
	ent.MarkUsed()
	switch ent.Kind {
	case scope.TypeName:
		return Operand{Mode: Type, Type: ent.NamedType, Expr: id, Entity: ent}
	case scope.Constant:
		return Operand{Mode: Constant, Type: ent.Type, Expr: id, Entity: ent}
	case scope.Procedure:
		return Operand{Mode: Value, Type: ent.ProcType, Expr: id, Entity: ent}
	case scope.Nil:
		return Operand{Mode: Constant, Type: types.TypRawPtr, Value: exactval.Ptr(0), Expr: id, Entity: ent}
	default:
		return Operand{Mode: Variable, Type: ent.Type, Expr: id, Entity: ent}
	}
}

func checkBasicLit(lit *ast.BasicLit) Operand {
	switch lit.LitKind {
	case ast.LitInt:
		var i int64
		fmt.Sscanf(lit.Value, "%d", &i)
		return Operand{Mode: Constant, Type: types.TypI64, Value: exactval.Int(i), Expr: lit}
	case ast.LitFloat:
		var f float64
		fmt.Sscanf(lit.Value, "%g", &f)
		return Operand{Mode: Constant, Type: types.TypF64, Value: exactval.Float64(f), Expr: lit}
	case ast.LitString:
		return Operand{Mode: Constant, Type: types.TypString, Value: exactval.Str(lit.Value), Expr: lit}
	case ast.LitBool:
		return Operand{Mode: Constant, Type: types.TypBool, Value: exactval.Bool_(lit.Value == "true"), Expr: lit}
	case ast.LitNil:
		return Operand{Mode: Constant, Type: types.TypRawPtr, Value: exactval.Ptr(0), Expr: lit}
	default:
		return InvalidOperand(lit)
	}
}

func checkCompoundLit(env Env, hint Hint, cl *ast.CompoundLit) Operand {
	var t *types.Type
	if cl.Type != nil {
		to := CheckExprOrType(env, cl.Type)
		if to.Mode != Type {
			env.Errorf(cl.Type.Pos(), "not a type")
			return InvalidOperand(cl)
		}
		t = to.Type
	} else if hint != nil {
		t = hint.HintType()
	}
	if t == nil {
		env.Errorf(cl.Pos(), "cannot infer type of composite literal")
		return InvalidOperand(cl)
	}
	base := types.BaseType(t)
	var elemHint Hint = NoHint
	if base != nil && (base.Kind == types.Array || base.Kind == types.Slice) {
		elemHint = TypeHint(base.Elem)
	}
	for _, el := range cl.Elems {
		switch fv := el.(type) {
		case *ast.FieldValue:
			var fieldType *types.Type
			if f, ok := types.FieldByName(t, fv.Name); ok {
				fieldType = f.Type
			} else {
				env.Errorf(fv.Pos(), "unknown field %q", fv.Name)
			}
			CheckExpr(env, TypeHint(fieldType), fv.Value)
		default:
			CheckExpr(env, elemHint, el)
		}
	}
	return Operand{Mode: Value, Type: t, Expr: cl}
}

// CheckMultiExpr type-checks e in a position that may legally yield more
// than one value (spec §4.1 AssignStmt: `a, b := f()`). Every expression
// kind other than CallExpr always yields exactly one Operand.
func CheckMultiExpr(env Env, e ast.Expr) []Operand {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return []Operand{CheckExpr(env, NoHint, e)}
	}
	fn := CheckExpr(env, NoHint, call.Fun)
	if fn.IsInvalid() {
		return []Operand{InvalidOperand(e)}
	}
	procType := types.BaseType(fn.Type)
	if procType == nil || procType.Kind != types.Proc {
		env.Errorf(call.Pos(), "cannot call non-procedure")
		return []Operand{InvalidOperand(e)}
	}
	if len(call.Args) != len(procType.Params) {
		env.Errorf(call.Pos(), "wrong number of arguments: have %d, want %d", len(call.Args), len(procType.Params))
	}
	for i, a := range call.Args {
		var hint Hint = NoHint
		if i < len(procType.Params) {
			hint = TypeHint(procType.Params[i])
		}
		arg := CheckExpr(env, hint, a)
		if i < len(procType.Params) && !arg.IsInvalid() {
			ConvertToTyped(env, arg, procType.Params[i])
		}
	}
	if len(procType.Results) == 0 {
		return nil
	}
	out := make([]Operand, len(procType.Results))
	for i, r := range procType.Results {
		out[i] = Operand{Mode: Value, Type: r, Expr: call}
	}
	return out
}

// CheckExprOrType checks e, accepting either a value-producing expression
// or a type designator (an Ident/SelectorExpr naming a TypeName entity).
// Used wherever the grammar is ambiguous between the two, e.g. a
// TypeMatchStmt case label or a CompoundLit's explicit type.
func CheckExprOrType(env Env, e ast.Expr) Operand {
	if id, ok := e.(*ast.Ident); ok {
		if ent, found := env.Lookup(id.Name); found && ent.Kind == scope.TypeName {
			ent.MarkUsed()
			return Operand{Mode: Type, Type: ent.NamedType, Expr: e, Entity: ent}
		}
	}
	return CheckExpr(env, NoHint, e)
}

// CheckBinaryExpr type-checks a BinaryExpr, dispatching comparisons to
// CheckComparison and arithmetic/logical operators to direct type
// agreement.
func CheckBinaryExpr(env Env, hint Hint, e *ast.BinaryExpr) Operand {
	x := CheckExpr(env, hint, e.X)
	y := CheckExpr(env, hint, e.Y)
	if x.IsInvalid() || y.IsInvalid() {
		return InvalidOperand(e)
	}
	switch e.Op {
	case ast.OpEql, ast.OpNeq, ast.OpLss, ast.OpLeq, ast.OpGtr, ast.OpGeq:
		return CheckComparison(env, e.Op, x, y)
	case ast.OpLAnd, ast.OpLOr:
		if !types.IsBool(x.Type) || !types.IsBool(y.Type) {
			env.Errorf(e.Pos(), "operator %s requires bool operands", e.Op)
			return InvalidOperand(e)
		}
		return Operand{Mode: Value, Type: types.TypBool, Expr: e}
	default:
		if !types.NumericType.Contains(types.SetOf(x.Type)) || !types.NumericType.Contains(types.SetOf(y.Type)) {
			env.Errorf(e.Pos(), "operator %s requires numeric operands", e.Op)
			return InvalidOperand(e)
		}
		if !types.Identical(x.Type, y.Type) {
			env.Errorf(e.Pos(), "mismatched types in %s %s %s", x.Type.Name, e.Op, y.Type.Name)
			return InvalidOperand(e)
		}
		mode := Value
		if x.Mode == Constant && y.Mode == Constant {
			mode = Constant
		}
		return Operand{Mode: mode, Type: x.Type, Expr: e}
	}
}

// CheckComparison type-checks x OP y for a comparison operator. Equality
// is legal between any identically-typed pair (spec glossary "base_type
// equality"); ordering operators additionally require a numeric or
// string operand.
func CheckComparison(env Env, op ast.Op, x, y Operand) Operand {
	if !types.Identical(x.Type, y.Type) {
		env.Errorf(x.Expr.Pos(), "mismatched types for comparison")
		return Operand{Mode: Invalid, Type: types.TypInvalid}
	}
	if op != ast.OpEql && op != ast.OpNeq {
		ordinal := types.NumericType | types.StringType
		if !ordinal.Contains(types.SetOf(x.Type)) {
			env.Errorf(x.Expr.Pos(), "operator %s not defined on %s", op, x.Type.Name)
			return Operand{Mode: Invalid, Type: types.TypInvalid}
		}
	}
	return Operand{Mode: Value, Type: types.TypBool}
}

// ConvertToTyped checks that o's type is assignable to target, reporting
// a TypeError-shaped diagnostic through env and returning an Invalid
// operand if not. It does not attempt numeric widening: the source
// language requires identical types at assignment, matching the
// teacher's conservative expr/check.go stance on implicit conversion.
func ConvertToTyped(env Env, o Operand, target *types.Type) Operand {
	if o.IsInvalid() || target == nil {
		return o
	}
	if !types.Identical(o.Type, target) {
		env.Errorf(o.Expr.Pos(), "cannot use value of type %s as %s", typeName(o.Type), typeName(target))
		return InvalidOperand(o.Expr)
	}
	o.Type = target
	return o
}

func typeName(t *types.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name != "" {
		return t.Name
	}
	return t.Kind.String()
}

// CheckAssignment verifies rhs may be assigned into lhs (spec §4.1
// AssignStmt), reporting a diagnostic and returning false on mismatch.
// The blank identifier is handled by the caller before reaching here.
func CheckAssignment(env Env, lhs, rhs Operand) bool {
	if lhs.IsInvalid() || rhs.IsInvalid() {
		return false
	}
	if lhs.Mode != Variable {
		env.Errorf(lhs.Expr.Pos(), "cannot assign to non-variable")
		return false
	}
	if !types.Identical(lhs.Type, rhs.Type) {
		env.Errorf(rhs.Expr.Pos(), "cannot assign %s to variable of type %s", typeName(rhs.Type), typeName(lhs.Type))
		return false
	}
	return true
}

// CheckSelector type-checks X.Sel: a field selection on a struct/pointer-
// to-struct, or (when X names an import) a qualified reference into the
// imported scope.
func CheckSelector(env Env, e *ast.SelectorExpr) Operand {
	if id, ok := e.X.(*ast.Ident); ok {
		if ent, found := env.Lookup(id.Name); found && ent.Kind == scope.ImportName {
			ent.MarkUsed()
			if ent.ImportScope == nil {
				return InvalidOperand(e)
			}
			if sub, ok := ent.ImportScope.Lookup(e.Sel); ok {
				sub.MarkUsed()
				return Operand{Mode: entityMode(sub), Type: sub.Type, Expr: e, Entity: sub}
			}
			env.Errorf(e.Pos(), "undefined: %s.%s", id.Name, e.Sel)
			return InvalidOperand(e)
		}
	}
	x := CheckExpr(env, NoHint, e.X)
	if x.IsInvalid() {
		return InvalidOperand(e)
	}
	structType := x.Type
	if types.IsPointer(structType) {
		structType = types.Deref(structType)
	}
	f, ok := types.FieldByName(structType, e.Sel)
	if !ok {
		env.Errorf(e.Pos(), "type %s has no field %q", typeName(x.Type), e.Sel)
		return InvalidOperand(e)
	}
	return Operand{Mode: Variable, Type: f.Type, Expr: e}
}

func entityMode(e *scope.Entity) Mode {
	switch e.Kind {
	case scope.TypeName:
		return Type
	case scope.Constant:
		return Constant
	default:
		return Variable
	}
}

// CheckInitVariables checks the Values of a VarDecl/short-define form
// against its declared names, handling both the parallel-assignment shape
// (len(values) == len(names), one value per name) and the single
// multi-valued call shape (len(values) == 1, a CallExpr yielding
// len(names) results). It inserts one Variable entity per non-blank name
// into sc and returns the inserted entities (nil for blank names).
func CheckInitVariables(env Env, sc *scope.Scope, pos ast.Pos, names []string, declType *types.Type, values []ast.Expr) []*scope.Entity {
	var vals []Operand
	switch {
	case len(values) == 1 && len(names) > 1:
		vals = CheckMultiExpr(env, values[0])
		if len(vals) != len(names) {
			env.Errorf(pos, "assignment mismatch: %d variables but call returns %d values", len(names), len(vals))
		}
	default:
		if len(values) != 0 && len(values) != len(names) {
			env.Errorf(pos, "assignment mismatch: %d variables but %d values", len(names), len(values))
		}
		for _, v := range values {
			vals = append(vals, CheckExpr(env, TypeHint(declType), v))
		}
	}

	out := make([]*scope.Entity, len(names))
	for i, name := range names {
		t := declType
		if t == nil && i < len(vals) && !vals[i].IsInvalid() {
			t = vals[i].Type
		}
		if i < len(vals) && t != nil && !vals[i].IsInvalid() {
			ConvertToTyped(env, vals[i], t)
		}
		if name == "_" {
			continue
		}
		ent := &scope.Entity{Kind: scope.Variable, Name: name, Pos: pos, Type: t}
		if prev, inserted := sc.Insert(ent); !inserted {
			env.Errorf(pos, "%s redeclared in this block (previous declaration at %s)", name, prev.Pos)
			continue
		}
		out[i] = ent
	}
	return out
}
