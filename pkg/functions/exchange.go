package functions

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/hugr-lab/duckdb-http/pkg/db"
	"github.com/hugr-lab/duckdb-http/pkg/fetch"
)

// doArgs are the arguments of the request functions that take a method and a
// payload. headers and cookies are accepted for call compatibility and ignored.
type doArgs struct {
	method  string
	url     string
	headers string
	body    []byte
	cookies string
}

func optionalBlob(args []driver.Value, i int) []byte {
	if i >= len(args) || args[i] == nil {
		return nil
	}
	switch v := args[i].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}

func requiredMethod(args []driver.Value, i int) (string, error) {
	m, err := requiredText(args, i, "method")
	if err != nil {
		return "", err
	}
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return "", fmt.Errorf("%w: method", ErrMissingArgument)
	}
	return m, nil
}

// postOverloads builds http_post_body(url [, headers [, body [, cookies]]]).
func postOverloads(execute func(ctx context.Context, args doArgs) ([]byte, error)) []db.ScalarFunctionCaster[[]byte] {
	varchar := db.TypeInfo(duckdb.TYPE_VARCHAR)
	blob := db.TypeInfo(duckdb.TYPE_BLOB)
	all := []duckdb.TypeInfo{varchar, varchar, blob, varchar}
	funcs := []db.ScalarFunctionCaster[[]byte]{
		&db.ScalarFunctionSetItemNoArgs[[]byte]{
			Execute: func(ctx context.Context) ([]byte, error) {
				return nil, fmt.Errorf("%w: url", ErrMissingArgument)
			},
		},
	}
	for n := 1; n <= len(all); n++ {
		funcs = append(funcs, &db.ScalarFunctionSetItem[doArgs, []byte]{
			Execute: execute,
			ConvertInput: func(args []driver.Value) (doArgs, error) {
				url, err := requiredText(args, 0, "url")
				if err != nil {
					return doArgs{}, err
				}
				return doArgs{
					method:  http.MethodPost,
					url:     url,
					headers: optionalText(args, 1),
					body:    optionalBlob(args, 2),
					cookies: optionalText(args, 3),
				}, nil
			},
			InputTypes: all[:n],
		})
	}
	return funcs
}

// doOverloads builds http_do_body(method, url [, headers [, body [, cookies]]]).
func doOverloads(execute func(ctx context.Context, args doArgs) ([]byte, error)) []db.ScalarFunctionCaster[[]byte] {
	varchar := db.TypeInfo(duckdb.TYPE_VARCHAR)
	blob := db.TypeInfo(duckdb.TYPE_BLOB)
	all := []duckdb.TypeInfo{varchar, varchar, varchar, blob, varchar}
	funcs := []db.ScalarFunctionCaster[[]byte]{
		&db.ScalarFunctionSetItemNoArgs[[]byte]{
			Execute: func(ctx context.Context) ([]byte, error) {
				return nil, fmt.Errorf("%w: method", ErrMissingArgument)
			},
		},
	}
	for n := 1; n <= len(all); n++ {
		funcs = append(funcs, &db.ScalarFunctionSetItem[doArgs, []byte]{
			Execute: execute,
			ConvertInput: func(args []driver.Value) (doArgs, error) {
				method, err := requiredMethod(args, 0)
				if err != nil {
					return doArgs{}, err
				}
				url, err := requiredText(args, 1, "url")
				if err != nil {
					return doArgs{}, err
				}
				return doArgs{
					method:  method,
					url:     url,
					headers: optionalText(args, 2),
					body:    optionalBlob(args, 3),
					cookies: optionalText(args, 4),
				}, nil
			},
			InputTypes: all[:n],
		})
	}
	return funcs
}

// exchangeRow is one row of http_get, http_post and http_do.
type exchangeRow struct {
	*fetch.Exchange
	timings string
}

var exchangeColumns = []duckdb.ColumnInfo{
	db.ColumnInfo("request_url", duckdb.TYPE_VARCHAR),
	db.ColumnInfo("request_method", duckdb.TYPE_VARCHAR),
	db.ColumnInfo("request_headers", duckdb.TYPE_VARCHAR),
	db.ColumnInfo("request_body", duckdb.TYPE_BLOB),
	db.ColumnInfo("response_status", duckdb.TYPE_VARCHAR),
	db.ColumnInfo("response_status_code", duckdb.TYPE_INTEGER),
	db.ColumnInfo("response_headers", duckdb.TYPE_VARCHAR),
	db.ColumnInfo("response_body", duckdb.TYPE_BLOB),
	db.ColumnInfo("remote_address", duckdb.TYPE_VARCHAR),
	db.ColumnInfo("timings", duckdb.TYPE_VARCHAR),
}

func fillExchangeRow(out exchangeRow, row duckdb.Row) error {
	values := []any{
		out.RequestURL,
		out.RequestMethod,
		out.RequestHeaders,
		out.RequestBody,
		out.Status,
		int32(out.StatusCode),
		out.ResponseHeaders,
		out.ResponseBody,
		out.RemoteAddress,
		out.timings,
	}
	for i, v := range values {
		if err := row.SetRowValue(i, v); err != nil {
			return err
		}
	}
	return nil
}

// namedText reads a named VARCHAR argument, absent and NULL read as "".
func namedText(named map[string]any, name string) (string, error) {
	v, ok := named[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected text, got %T", name, v)
	}
	return s, nil
}

func namedBlob(named map[string]any, name string) ([]byte, error) {
	v, ok := named[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("%s: expected blob, got %T", name, v)
}

// positionalText reads a required positional table function argument.
func positionalText(args []any, i int, name string) (string, error) {
	if i >= len(args) || args[i] == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: expected text, got %T", name, args[i])
	}
	return s, nil
}

// convertExchangeArgs reads [method,] url and the named headers, body and
// cookies arguments of the request table functions.
func convertExchangeArgs(method string, named map[string]any, args ...any) (doArgs, error) {
	i := 0
	if method == "" {
		m, err := positionalText(args, 0, "method")
		if err != nil {
			return doArgs{}, err
		}
		method = strings.ToUpper(strings.TrimSpace(m))
		if method == "" {
			return doArgs{}, fmt.Errorf("%w: method", ErrMissingArgument)
		}
		i = 1
	}
	url, err := positionalText(args, i, "url")
	if err != nil {
		return doArgs{}, err
	}
	in := doArgs{method: method, url: url}
	if in.headers, err = namedText(named, "headers"); err != nil {
		return doArgs{}, err
	}
	if in.cookies, err = namedText(named, "cookies"); err != nil {
		return doArgs{}, err
	}
	if _, ok := named["body"]; ok {
		if in.body, err = namedBlob(named, "body"); err != nil {
			return doArgs{}, err
		}
	}
	return in, nil
}

func (s *Service) registerExchange(ctx context.Context) error {
	// http_post_body(url [, headers [, body [, cookies]]]) BLOB
	err := db.RegisterScalarFunctionSet(ctx, s.db, &db.ScalarFunctionTypedSet[[]byte]{
		Name:                  "http_post_body",
		Funcs:                 postOverloads(s.doBody),
		OutputType:            db.TypeInfo(duckdb.TYPE_BLOB),
		IsVolatile:            true,
		IsSpecialNullHandling: true,
	})
	if err != nil {
		return fmt.Errorf("http_post_body: %w", err)
	}

	// http_do_body(method, url [, headers [, body [, cookies]]]) BLOB
	err = db.RegisterScalarFunctionSet(ctx, s.db, &db.ScalarFunctionTypedSet[[]byte]{
		Name:                  "http_do_body",
		Funcs:                 doOverloads(s.doBody),
		OutputType:            db.TypeInfo(duckdb.TYPE_BLOB),
		IsVolatile:            true,
		IsSpecialNullHandling: true,
	})
	if err != nil {
		return fmt.Errorf("http_do_body: %w", err)
	}

	varchar := db.TypeInfo(duckdb.TYPE_VARCHAR)
	blob := db.TypeInfo(duckdb.TYPE_BLOB)
	tables := []struct {
		name      string
		method    string
		arguments []duckdb.TypeInfo
		named     map[string]duckdb.TypeInfo
	}{
		// SELECT * FROM http_get(url, headers := '', cookies := '')
		{"http_get", http.MethodGet, []duckdb.TypeInfo{varchar},
			map[string]duckdb.TypeInfo{"headers": varchar, "cookies": varchar}},
		// SELECT * FROM http_post(url, body := ''::BLOB, headers := '', cookies := '')
		{"http_post", http.MethodPost, []duckdb.TypeInfo{varchar},
			map[string]duckdb.TypeInfo{"headers": varchar, "body": blob, "cookies": varchar}},
		// SELECT * FROM http_do(method, url, body := ''::BLOB, headers := '', cookies := '')
		{"http_do", "", []duckdb.TypeInfo{varchar, varchar},
			map[string]duckdb.TypeInfo{"headers": varchar, "body": blob, "cookies": varchar}},
	}
	for _, t := range tables {
		method := t.method
		err = db.RegisterTableRowFunction(ctx, s.db, &db.TableRowFunctionWithArgs[doArgs, exchangeRow]{
			Name:           t.name,
			Execute:        s.exchange,
			Arguments:      t.arguments,
			NamedArguments: t.named,
			ConvertArgs: func(named map[string]any, args ...any) (doArgs, error) {
				return convertExchangeArgs(method, named, args...)
			},
			ColumnInfos: exchangeColumns,
			FillRow:     fillExchangeRow,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
	}
	return nil
}

func (s *Service) doBody(ctx context.Context, args doArgs) ([]byte, error) {
	return s.client.DoBody(ctx, args.method, args.url, args.headers, args.body, args.cookies)
}

func (s *Service) exchange(ctx context.Context, args doArgs) ([]exchangeRow, error) {
	ex, err := s.client.Do(args.method, args.url, args.headers, args.body, args.cookies).Exchange(ctx)
	if err != nil {
		return nil, err
	}
	timings, err := json.Marshal(ex.Timings)
	if err != nil {
		return nil, err
	}
	return []exchangeRow{{Exchange: ex, timings: string(timings)}}, nil
}
