package functions

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/hugr-lab/duckdb-http/pkg/db"
	"github.com/hugr-lab/duckdb-http/pkg/handles"
)

const (
	defaultChunkSize = 64 << 10
	maxChunkSize     = 64 << 20
)

func (s *Service) registerRead(ctx context.Context) error {
	// http_read(handle) BLOB drains the whole stream
	err := db.RegisterScalarFunction(ctx, s.db, &db.ScalarFunctionWithArgs[handles.Handle, []byte]{
		Name:    "http_read",
		Execute: s.read,
		ConvertInput: func(args []driver.Value) (handles.Handle, error) {
			h, err := requiredText(args, 0, "handle")
			return handles.Handle(h), err
		},
		InputTypes:            []duckdb.TypeInfo{db.TypeInfo(duckdb.TYPE_VARCHAR)},
		OutputType:            db.TypeInfo(duckdb.TYPE_BLOB),
		IsVolatile:            true,
		IsSpecialNullHandling: true,
	})
	if err != nil {
		return fmt.Errorf("http_read: %w", err)
	}

	// SELECT chunk, offset, data FROM http_read_chunks(handle, chunk_size := 65536)
	type chunksArgs struct {
		handle    handles.Handle
		chunkSize int
	}
	err = db.RegisterTableRowFunction(ctx, s.db, &db.TableStreamFunction[chunksArgs, chunk]{
		Name:      "http_read_chunks",
		Arguments: []duckdb.TypeInfo{db.TypeInfo(duckdb.TYPE_VARCHAR)},
		NamedArguments: map[string]duckdb.TypeInfo{
			"chunk_size": db.TypeInfo(duckdb.TYPE_BIGINT),
		},
		ConvertArgs: func(named map[string]any, args ...any) (chunksArgs, error) {
			if len(args) != 1 || args[0] == nil {
				return chunksArgs{}, fmt.Errorf("%w: handle", ErrMissingArgument)
			}
			h, ok := args[0].(string)
			if !ok {
				return chunksArgs{}, fmt.Errorf("handle: expected text, got %T", args[0])
			}
			in := chunksArgs{handle: handles.Handle(h), chunkSize: defaultChunkSize}
			if v, ok := named["chunk_size"]; ok && v != nil {
				size, ok := v.(int64)
				if !ok || size <= 0 || size > maxChunkSize {
					return chunksArgs{}, fmt.Errorf("chunk_size must be between 1 and %d", maxChunkSize)
				}
				in.chunkSize = int(size)
			}
			return in, nil
		},
		Open: func(ctx context.Context, in chunksArgs) (db.RowIterator[chunk], error) {
			stream, err := s.open(ctx, in.handle)
			if err != nil {
				return nil, err
			}
			return &chunkIterator{stream: stream, buf: make([]byte, in.chunkSize)}, nil
		},
		ColumnInfos: []duckdb.ColumnInfo{
			db.ColumnInfo("chunk", duckdb.TYPE_BIGINT),
			db.ColumnInfo("offset", duckdb.TYPE_BIGINT),
			db.ColumnInfo("data", duckdb.TYPE_BLOB),
		},
		FillRow: func(c chunk, row duckdb.Row) error {
			if err := row.SetRowValue(0, c.index); err != nil {
				return err
			}
			if err := row.SetRowValue(1, c.offset); err != nil {
				return err
			}
			return row.SetRowValue(2, c.data)
		},
	})
	if err != nil {
		return fmt.Errorf("http_read_chunks: %w", err)
	}
	return nil
}

// open retrieves the generator behind the handle and starts its stream.
func (s *Service) open(ctx context.Context, h handles.Handle) (io.ReadCloser, error) {
	g, err := s.handles.Reader(h)
	if err != nil {
		return nil, fmt.Errorf("handle %s: %w", h, err)
	}
	return g.Generate(ctx)
}

func (s *Service) read(ctx context.Context, h handles.Handle) ([]byte, error) {
	stream, err := s.open(ctx, h)
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	b, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

type chunk struct {
	index  int64
	offset int64
	data   []byte
}

// chunkIterator reads the stream in fixed size pieces, the last one may be
// shorter.
type chunkIterator struct {
	stream io.ReadCloser
	buf    []byte
	index  int64
	offset int64
}

func (it *chunkIterator) Next() (chunk, bool, error) {
	n, err := io.ReadFull(it.stream, it.buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return chunk{}, false, nil
		}
		return chunk{}, false, err
	}
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return chunk{}, false, err
	}
	c := chunk{
		index:  it.index,
		offset: it.offset,
		data:   append([]byte(nil), it.buf[:n]...),
	}
	it.index++
	it.offset += int64(n)
	return c, true, nil
}

func (it *chunkIterator) Close() error {
	return it.stream.Close()
}
