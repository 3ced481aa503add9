package db

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"
)

type ScalarFunction interface {
	FuncName() string
	Executor() func(ctx context.Context, args []driver.Value) (any, error)
	Config() duckdb.ScalarFuncConfig
}

type ScalarFunctionSet interface {
	FuncName() string
	Functions() []duckdb.ScalarFunc
}

func RegisterScalarFunction(ctx context.Context, db *Pool, function ScalarFunction) error {
	c, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return duckdb.RegisterScalarUDF(c.DBConn(), function.FuncName(), &scalarUDF{
		function: function,
	})
}

func RegisterScalarFunctionSet(ctx context.Context, db *Pool, set ScalarFunctionSet) error {
	c, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	return duckdb.RegisterScalarUDFSet(c.DBConn(), set.FuncName(), set.Functions()...)
}

// executionError turns a Go error into the error DuckDB reports for the
// statement, keeping the message.
func executionError(name string, err error) error {
	return &duckdb.Error{
		Type: duckdb.ErrorTypeInvalidInput,
		Msg:  fmt.Sprintf("%s: %v", name, err),
	}
}

var _ ScalarFunction = (*ScalarFunctionWithArgs[any, any])(nil)

type ScalarFunctionWithArgs[I any, O any] struct {
	Name         string
	Execute      func(ctx context.Context, input I) (O, error)
	ConvertInput func(args []driver.Value) (I, error)
	// ConvertOutput is optional, the Execute result is returned as is without it.
	ConvertOutput func(out O) (any, error)
	InputTypes    []duckdb.TypeInfo
	OutputType    duckdb.TypeInfo
	IsVolatile    bool
	// IsSpecialNullHandling passes NULL arguments to ConvertInput as nil
	// instead of short-circuiting the call to NULL.
	IsSpecialNullHandling bool
}

func (f *ScalarFunctionWithArgs[I, O]) FuncName() string {
	return f.Name
}

func (f *ScalarFunctionWithArgs[I, O]) Executor() func(ctx context.Context, args []driver.Value) (any, error) {
	return func(ctx context.Context, args []driver.Value) (any, error) {
		if len(args) != len(f.InputTypes) {
			return nil, &duckdb.Error{Type: duckdb.ErrorTypeParameterNotResolved, Msg: "invalid number of arguments"}
		}
		in, err := f.ConvertInput(args)
		if err != nil {
			return nil, executionError(f.Name, err)
		}
		out, err := f.Execute(ctx, in)
		if err != nil {
			return nil, executionError(f.Name, err)
		}
		if f.ConvertOutput == nil {
			return out, nil
		}
		co, err := f.ConvertOutput(out)
		if err != nil {
			return nil, executionError(f.Name, err)
		}
		return co, nil
	}
}

func (f *ScalarFunctionWithArgs[I, O]) Config() duckdb.ScalarFuncConfig {
	return duckdb.ScalarFuncConfig{
		InputTypeInfos:      f.InputTypes,
		ResultTypeInfo:      f.OutputType,
		Volatile:            f.IsVolatile,
		SpecialNullHandling: f.IsSpecialNullHandling,
	}
}

var _ ScalarFunction = (*ScalarFunctionNoArgs[any])(nil)

type ScalarFunctionNoArgs[O any] struct {
	Name          string
	Execute       func(ctx context.Context) (O, error)
	ConvertOutput func(out O) (any, error)
	OutputType    duckdb.TypeInfo
	IsVolatile    bool
}

func (f *ScalarFunctionNoArgs[O]) FuncName() string {
	return f.Name
}

func (f *ScalarFunctionNoArgs[O]) Executor() func(ctx context.Context, args []driver.Value) (any, error) {
	return func(ctx context.Context, args []driver.Value) (any, error) {
		if len(args) != 0 {
			return nil, &duckdb.Error{Type: duckdb.ErrorTypeParameterNotResolved, Msg: "invalid number of arguments"}
		}
		out, err := f.Execute(ctx)
		if err != nil {
			return nil, executionError(f.Name, err)
		}
		if f.ConvertOutput == nil {
			return out, nil
		}
		co, err := f.ConvertOutput(out)
		if err != nil {
			return nil, executionError(f.Name, err)
		}
		return co, nil
	}
}

func (f *ScalarFunctionNoArgs[O]) Config() duckdb.ScalarFuncConfig {
	return duckdb.ScalarFuncConfig{
		InputTypeInfos: []duckdb.TypeInfo{},
		ResultTypeInfo: f.OutputType,
		Volatile:       f.IsVolatile,
	}
}

type ScalarFunctionCaster[O any] interface {
	ScalarUDF(set *ScalarFunctionTypedSet[O]) ScalarFunction
}

// ScalarFunctionTypedSet registers overloads of one function name that share
// the output type.
type ScalarFunctionTypedSet[O any] struct {
	Name                  string
	Funcs                 []ScalarFunctionCaster[O]
	ConvertOutput         func(out O) (any, error)
	OutputType            duckdb.TypeInfo
	IsVolatile            bool
	IsSpecialNullHandling bool
}

func (s *ScalarFunctionTypedSet[O]) FuncName() string {
	return s.Name
}

func (s *ScalarFunctionTypedSet[O]) Functions() []duckdb.ScalarFunc {
	var funcs []duckdb.ScalarFunc
	for _, f := range s.Funcs {
		funcs = append(funcs, &scalarUDF{
			function: f.ScalarUDF(s),
		})
	}
	return funcs
}

type ScalarFunctionSetItem[I any, O any] struct {
	Execute      func(ctx context.Context, input I) (O, error)
	ConvertInput func(args []driver.Value) (I, error)
	InputTypes   []duckdb.TypeInfo
}

func (f *ScalarFunctionSetItem[I, O]) ScalarUDF(set *ScalarFunctionTypedSet[O]) ScalarFunction {
	return &ScalarFunctionWithArgs[I, O]{
		Name:                  set.Name,
		Execute:               f.Execute,
		ConvertInput:          f.ConvertInput,
		ConvertOutput:         set.ConvertOutput,
		InputTypes:            f.InputTypes,
		OutputType:            set.OutputType,
		IsVolatile:            set.IsVolatile,
		IsSpecialNullHandling: set.IsSpecialNullHandling,
	}
}

type ScalarFunctionSetItemNoArgs[O any] struct {
	Execute func(ctx context.Context) (O, error)
}

func (f *ScalarFunctionSetItemNoArgs[O]) ScalarUDF(set *ScalarFunctionTypedSet[O]) ScalarFunction {
	return &ScalarFunctionNoArgs[O]{
		Name:          set.Name,
		Execute:       f.Execute,
		ConvertOutput: set.ConvertOutput,
		OutputType:    set.OutputType,
		IsVolatile:    set.IsVolatile,
	}
}

type scalarUDF struct {
	function ScalarFunction
}

func (f *scalarUDF) Config() duckdb.ScalarFuncConfig {
	return f.function.Config()
}

func (f *scalarUDF) Executor() duckdb.ScalarFuncExecutor {
	return duckdb.ScalarFuncExecutor{
		RowContextExecutor: f.function.Executor(),
	}
}
