package handles

import (
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringGenerator struct {
	body string
}

func (g *stringGenerator) Generate(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(g.body)), nil
}

func TestRetrieve(t *testing.T) {
	gen := &stringGenerator{body: "hello"}

	tests := []struct {
		name    string
		slot    *Slot
		tag     string
		wantErr error
	}{
		{
			name:    "nil slot",
			slot:    nil,
			tag:     ReaderTag,
			wantErr: ErrNotPresent,
		},
		{
			name:    "never written",
			slot:    &Slot{},
			tag:     ReaderTag,
			wantErr: ErrNotPresent,
		},
		{
			name: "other tag",
			slot: func() *Slot {
				s := &Slot{}
				s.Register("file0", gen)
				return s
			}(),
			tag:     ReaderTag,
			wantErr: ErrTagMismatch,
		},
		{
			name: "same tag, other shape",
			slot: func() *Slot {
				s := &Slot{}
				s.Register(ReaderTag, "not a generator")
				return s
			}(),
			tag:     ReaderTag,
			wantErr: ErrTagMismatch,
		},
		{
			name: "matching tag",
			slot: func() *Slot {
				s := &Slot{}
				s.Register(ReaderTag, gen)
				return s
			}(),
			tag: ReaderTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Retrieve[Generator](tt.slot, tt.tag)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Same(t, gen, got.(*stringGenerator))
		})
	}
}

func TestRegistry_RegisterAndReader(t *testing.T) {
	r := New(Config{})
	gen := &stringGenerator{body: "hello world"}

	h := r.Register(ReaderTag, gen)
	require.NotEmpty(t, h)
	assert.Equal(t, 1, r.Len())

	got, err := r.Reader(h)
	require.NoError(t, err)
	assert.Same(t, gen, got.(*stringGenerator))

	stream, err := got.Generate(context.Background())
	require.NoError(t, err)
	defer stream.Close()
	b, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(b))
}

func TestRegistry_UnknownHandle(t *testing.T) {
	r := New(Config{})
	_, err := r.Reader(Handle("missing"))
	assert.ErrorIs(t, err, ErrNotPresent)
}

func TestRegistry_TagMismatch(t *testing.T) {
	r := New(Config{})
	h := r.Register("file0", &stringGenerator{})

	_, err := r.Reader(h)
	assert.ErrorIs(t, err, ErrTagMismatch)

	g, err := Lookup[Generator](r, h, "file0")
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestRegistry_Release(t *testing.T) {
	r := New(Config{})
	h := r.Register(ReaderTag, &stringGenerator{})

	assert.True(t, r.Release(h))
	assert.False(t, r.Release(h))

	_, err := r.Reader(h)
	assert.ErrorIs(t, err, ErrNotPresent)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Capacity(t *testing.T) {
	r := New(Config{Capacity: 2})
	h1 := r.Register(ReaderTag, &stringGenerator{})
	h2 := r.Register(ReaderTag, &stringGenerator{})
	h3 := r.Register(ReaderTag, &stringGenerator{})

	_, err := r.Reader(h1)
	assert.ErrorIs(t, err, ErrNotPresent)
	_, err = r.Reader(h2)
	assert.NoError(t, err)
	_, err = r.Reader(h3)
	assert.NoError(t, err)
}

func TestRegistry_TTL(t *testing.T) {
	r := New(Config{TTL: 20 * time.Millisecond})
	h := r.Register(ReaderTag, &stringGenerator{})

	_, err := r.Reader(h)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	_, err = r.Reader(h)
	assert.ErrorIs(t, err, ErrNotPresent)
}

func TestRegistry_Entries(t *testing.T) {
	r := New(Config{})
	h1 := r.Register(ReaderTag, &stringGenerator{})
	time.Sleep(time.Millisecond)
	h2 := r.Register("file0", &stringGenerator{})

	ee := r.Entries()
	require.Len(t, ee, 2)
	assert.Equal(t, h1, ee[0].Handle)
	assert.Equal(t, ReaderTag, ee[0].Tag)
	assert.Equal(t, h2, ee[1].Handle)
	assert.Equal(t, "file0", ee[1].Tag)
	assert.False(t, ee[0].CreatedAt.After(ee[1].CreatedAt))
}

func TestRegistry_NoExpiryStartsNoGoroutine(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 10; i++ {
		r := New(Config{TTL: NoExpiry})
		r.Register(ReaderTag, &stringGenerator{})
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
}
