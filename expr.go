package budgetgrid

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultExprEnv is the environment a column DefaultExpression is evaluated in.
//
//	previous   data of the row right before the new one, nil at the top of the table
//	rows       data of up to two previous rows, oldest first
//	index      position of the new row within the generated block
//	count      size of the generated block
//	field      field of the column being filled
type DefaultExprEnv struct {
	Previous map[string]any   `expr:"previous"`
	Rows     []map[string]any `expr:"rows"`
	Index    int              `expr:"index"`
	Count    int              `expr:"count"`
	Field    string           `expr:"field"`
}

func newDefaultExprEnv(field string, prev []Row, index, count int) DefaultExprEnv {
	env := DefaultExprEnv{Index: index, Count: count, Field: field}
	for _, r := range prev {
		env.Rows = append(env.Rows, map[string]any(r.Data))
	}
	if n := len(env.Rows); n > 0 {
		env.Previous = env.Rows[n-1]
	}
	return env
}

// exprEvaluator compiles default expressions once and caches the programs.
type exprEvaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

var defaultEvaluator = &exprEvaluator{}

func (e *exprEvaluator) Evaluate(expression string, env DefaultExprEnv) (any, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := e.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", expression, err)
	}
	return result, nil
}

func (e *exprEvaluator) compile(expression string) (*vm.Program, error) {
	if cached, ok := e.cache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := compileDefaultExpression(expression)
	if err != nil {
		return nil, err
	}
	e.cache.Store(expression, program)
	return program, nil
}

func compileDefaultExpression(expression string) (*vm.Program, error) {
	return expr.Compile(expression, expr.Env(DefaultExprEnv{}))
}
