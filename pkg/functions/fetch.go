package functions

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/hugr-lab/duckdb-http/pkg/db"
	"github.com/hugr-lab/duckdb-http/pkg/handles"
)

// getArgs are the arguments of http_get_body and http_request.
// headers and cookies are accepted for call compatibility and ignored.
type getArgs struct {
	url     string
	headers string
	cookies string
}

func convertGetArgs(args []driver.Value) (getArgs, error) {
	url, err := requiredText(args, 0, "url")
	if err != nil {
		return getArgs{}, err
	}
	return getArgs{
		url:     url,
		headers: optionalText(args, 1),
		cookies: optionalText(args, 2),
	}, nil
}

// getOverloads builds the (url), (url, headers), (url, headers, cookies)
// overloads plus a no-argument overload that reports the missing url.
func getOverloads[O any](execute func(ctx context.Context, args getArgs) (O, error)) []db.ScalarFunctionCaster[O] {
	varchar := db.TypeInfo(duckdb.TYPE_VARCHAR)
	funcs := []db.ScalarFunctionCaster[O]{
		&db.ScalarFunctionSetItemNoArgs[O]{
			Execute: func(ctx context.Context) (O, error) {
				var zero O
				return zero, fmt.Errorf("%w: url", ErrMissingArgument)
			},
		},
	}
	for n := 1; n <= 3; n++ {
		types := make([]duckdb.TypeInfo, n)
		for i := range types {
			types[i] = varchar
		}
		funcs = append(funcs, &db.ScalarFunctionSetItem[getArgs, O]{
			Execute:      execute,
			ConvertInput: convertGetArgs,
			InputTypes:   types,
		})
	}
	return funcs
}

func (s *Service) registerFetch(ctx context.Context) error {
	// http_get_body(url [, headers [, cookies]]) BLOB
	err := db.RegisterScalarFunctionSet(ctx, s.db, &db.ScalarFunctionTypedSet[[]byte]{
		Name:                  "http_get_body",
		Funcs:                 getOverloads(s.getBody),
		OutputType:            db.TypeInfo(duckdb.TYPE_BLOB),
		IsVolatile:            true,
		IsSpecialNullHandling: true,
	})
	if err != nil {
		return fmt.Errorf("http_get_body: %w", err)
	}

	// http_request(url [, headers [, cookies]]) VARCHAR handle
	err = db.RegisterScalarFunctionSet(ctx, s.db, &db.ScalarFunctionTypedSet[handles.Handle]{
		Name:  "http_request",
		Funcs: getOverloads(s.request),
		ConvertOutput: func(h handles.Handle) (any, error) {
			return string(h), nil
		},
		OutputType:            db.TypeInfo(duckdb.TYPE_VARCHAR),
		IsVolatile:            true,
		IsSpecialNullHandling: true,
	})
	if err != nil {
		return fmt.Errorf("http_request: %w", err)
	}
	return nil
}

func (s *Service) getBody(ctx context.Context, args getArgs) ([]byte, error) {
	return s.client.GetBody(ctx, args.url, args.headers, args.cookies)
}

func (s *Service) request(ctx context.Context, args getArgs) (handles.Handle, error) {
	d := s.client.Request(args.url, args.headers, args.cookies)
	h := s.handles.Register(handles.ReaderTag, d)
	s.logger.Debug("http request handle created", zap.String("handle", string(h)), zap.String("url", args.url))
	return h, nil
}
