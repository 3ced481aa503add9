package handles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ReaderTag identifies slots that hold a Generator.
const ReaderTag = "reader0"

var (
	ErrNotPresent  = errors.New("handle: no value present")
	ErrTagMismatch = errors.New("handle: tag mismatch")
)

// Generator produces a fresh byte stream on every call.
// The caller owns the returned stream and must close it.
type Generator interface {
	Generate(ctx context.Context) (io.ReadCloser, error)
}

// Slot holds one tagged value. It is written once by the producer and read
// by consumers that know the tag.
type Slot struct {
	tag       string
	value     any
	createdAt time.Time
}

func (s *Slot) Register(tag string, value any) {
	s.tag = tag
	s.value = value
	s.createdAt = time.Now()
}

func (s *Slot) Tag() string {
	if s == nil {
		return ""
	}
	return s.tag
}

func (s *Slot) CreatedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.createdAt
}

func (s *Slot) empty() bool {
	return s == nil || s.value == nil
}

// Retrieve returns the value stored in the slot under tag.
// The tag and the dynamic type of the value must both match.
func Retrieve[T any](s *Slot, tag string) (T, error) {
	var zero T
	if s.empty() {
		return zero, ErrNotPresent
	}
	if s.tag != tag {
		return zero, fmt.Errorf("%w: slot holds %q, requested %q", ErrTagMismatch, s.tag, tag)
	}
	v, ok := s.value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q value has type %T", ErrTagMismatch, tag, s.value)
	}
	return v, nil
}
