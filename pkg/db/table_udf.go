package db

import (
	"context"
	"runtime"
	"sync"

	"github.com/duckdb/duckdb-go/v2"
)

func RegisterTableRowFunction(ctx context.Context, db *Pool, function TableRowFunction) error {
	c, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return duckdb.RegisterTableUDF(c.DBConn(), function.FuncName(), function.Bind(ctx))
}

type TableRowFunction interface {
	FuncName() string
	Bind(ctx context.Context) duckdb.RowTableFunction
}

// TableRowFunctionWithArgs materializes all rows when the scan starts.
type TableRowFunctionWithArgs[I any, O any] struct {
	Name           string
	Execute        func(ctx context.Context, input I) ([]O, error)
	Arguments      []duckdb.TypeInfo
	NamedArguments map[string]duckdb.TypeInfo
	ConvertArgs    func(named map[string]any, args ...any) (I, error)
	ColumnInfos    []duckdb.ColumnInfo
	FillRow        func(out O, row duckdb.Row) error
}

func (f *TableRowFunctionWithArgs[I, O]) FuncName() string {
	return f.Name
}

func (f *TableRowFunctionWithArgs[I, O]) Bind(ctx context.Context) duckdb.RowTableFunction {
	ctx = context.WithoutCancel(ctx)
	return duckdb.RowTableFunction{
		Config: duckdb.TableFunctionConfig{
			Arguments:      f.Arguments,
			NamedArguments: f.NamedArguments,
		},
		BindArguments: func(named map[string]any, args ...any) (duckdb.RowTableSource, error) {
			input, err := f.ConvertArgs(named, args...)
			if err != nil {
				return nil, err
			}
			return &tableRowUDFSource[I, O]{
				ctx:      ctx,
				args:     input,
				colInfos: f.ColumnInfos,
				execute:  f.Execute,
				fillRow:  f.FillRow,
			}, nil
		},
	}
}

// TableRowFunctionNoArgs materializes all rows when the scan starts.
type TableRowFunctionNoArgs[O any] struct {
	Name        string
	Execute     func(ctx context.Context) ([]O, error)
	ColumnInfos []duckdb.ColumnInfo
	FillRow     func(out O, row duckdb.Row) error
}

func (f *TableRowFunctionNoArgs[O]) FuncName() string {
	return f.Name
}

func (f *TableRowFunctionNoArgs[O]) Bind(ctx context.Context) duckdb.RowTableFunction {
	ctx = context.WithoutCancel(ctx)
	return duckdb.RowTableFunction{
		Config: duckdb.TableFunctionConfig{},
		BindArguments: func(named map[string]any, args ...any) (duckdb.RowTableSource, error) {
			return &tableRowUDFSource[struct{}, O]{
				ctx:      ctx,
				colInfos: f.ColumnInfos,
				execute: func(ctx context.Context, _ struct{}) ([]O, error) {
					return f.Execute(ctx)
				},
				fillRow: f.FillRow,
			}, nil
		},
	}
}

type tableRowUDFSource[I any, O any] struct {
	ctx  context.Context
	args I

	colInfos []duckdb.ColumnInfo
	execute  func(ctx context.Context, input I) ([]O, error)
	fillRow  func(out O, row duckdb.Row) error

	data []O
	err  error
	curr int
}

func (s *tableRowUDFSource[I, O]) Init() {
	s.data, s.err = s.execute(s.ctx, s.args)
}

func (s *tableRowUDFSource[I, O]) Cardinality() *duckdb.CardinalityInfo {
	if s.data == nil {
		return nil
	}
	return &duckdb.CardinalityInfo{
		Cardinality: uint(len(s.data)),
		Exact:       true,
	}
}

func (s *tableRowUDFSource[I, O]) ColumnInfos() []duckdb.ColumnInfo {
	return s.colInfos
}

func (s *tableRowUDFSource[I, O]) FillRow(row duckdb.Row) (bool, error) {
	if s.err != nil {
		return false, &duckdb.Error{
			Type: duckdb.ErrorTypeExecutor,
			Msg:  s.err.Error(),
		}
	}
	if s.curr >= len(s.data) {
		return false, nil
	}
	err := s.fillRow(s.data[s.curr], row)
	if err != nil {
		return false, &duckdb.Error{
			Type: duckdb.ErrorTypeExecutor,
			Msg:  err.Error(),
		}
	}
	s.curr++
	return true, nil
}

// RowIterator yields rows one at a time. Next returns false when exhausted.
type RowIterator[O any] interface {
	Next() (O, bool, error)
	Close() error
}

// TableStreamFunction pulls rows from an iterator while DuckDB scans, nothing
// is materialized ahead of the scan. The iterator is opened on the first row
// request and closed when exhausted or failed. DuckDB does not report a scan
// that stops early (LIMIT, a failing operator, an interrupted statement), so
// an iterator left open is closed once its source is garbage collected.
type TableStreamFunction[I any, O any] struct {
	Name           string
	Arguments      []duckdb.TypeInfo
	NamedArguments map[string]duckdb.TypeInfo
	ConvertArgs    func(named map[string]any, args ...any) (I, error)
	Open           func(ctx context.Context, input I) (RowIterator[O], error)
	ColumnInfos    []duckdb.ColumnInfo
	FillRow        func(out O, row duckdb.Row) error
}

func (f *TableStreamFunction[I, O]) FuncName() string {
	return f.Name
}

func (f *TableStreamFunction[I, O]) Bind(ctx context.Context) duckdb.RowTableFunction {
	ctx = context.WithoutCancel(ctx)
	return duckdb.RowTableFunction{
		Config: duckdb.TableFunctionConfig{
			Arguments:      f.Arguments,
			NamedArguments: f.NamedArguments,
		},
		BindArguments: func(named map[string]any, args ...any) (duckdb.RowTableSource, error) {
			input, err := f.ConvertArgs(named, args...)
			if err != nil {
				return nil, err
			}
			s := &tableStreamSource[I, O]{
				ctx:      ctx,
				args:     input,
				colInfos: f.ColumnInfos,
				open:     f.Open,
				fillRow:  f.FillRow,
				state:    &streamState[O]{},
			}
			runtime.AddCleanup(s, (*streamState[O]).close, s.state)
			return s, nil
		},
	}
}

// streamState owns the iterator of one scan. It is kept apart from the source
// so the cleanup attached to the source can reach it.
type streamState[O any] struct {
	mu     sync.Mutex
	it     RowIterator[O]
	closed bool
}

// attach stores the opened iterator, it reports false and closes the iterator
// when the state is already closed.
func (st *streamState[O]) attach(it RowIterator[O]) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		it.Close()
		return false
	}
	st.it = it
	return true
}

func (st *streamState[O]) close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	st.closed = true
	if st.it != nil {
		st.it.Close()
		st.it = nil
	}
}

type tableStreamSource[I any, O any] struct {
	ctx  context.Context
	args I

	colInfos []duckdb.ColumnInfo
	open     func(ctx context.Context, input I) (RowIterator[O], error)
	fillRow  func(out O, row duckdb.Row) error

	state *streamState[O]
	it    RowIterator[O]
	done  bool
}

func (s *tableStreamSource[I, O]) Init() {}

func (s *tableStreamSource[I, O]) Cardinality() *duckdb.CardinalityInfo {
	return nil
}

func (s *tableStreamSource[I, O]) ColumnInfos() []duckdb.ColumnInfo {
	return s.colInfos
}

func (s *tableStreamSource[I, O]) FillRow(row duckdb.Row) (bool, error) {
	if s.done {
		return false, nil
	}
	if s.it == nil {
		it, err := s.open(s.ctx, s.args)
		if err != nil {
			s.done = true
			return false, &duckdb.Error{Type: duckdb.ErrorTypeExecutor, Msg: err.Error()}
		}
		if !s.state.attach(it) {
			s.done = true
			return false, nil
		}
		s.it = it
	}
	out, ok, err := s.it.Next()
	if err != nil || !ok {
		s.finish()
		if err != nil {
			return false, &duckdb.Error{Type: duckdb.ErrorTypeExecutor, Msg: err.Error()}
		}
		return false, nil
	}
	if err := s.fillRow(out, row); err != nil {
		s.finish()
		return false, &duckdb.Error{Type: duckdb.ErrorTypeExecutor, Msg: err.Error()}
	}
	return true, nil
}

func (s *tableStreamSource[I, O]) finish() {
	s.done = true
	s.state.close()
}
