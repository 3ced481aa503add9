package handles

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Handle is the opaque token returned to SQL for a registered slot.
type Handle string

// NoExpiry keeps slots until they are released or evicted by capacity.
const NoExpiry time.Duration = -1

type Config struct {
	Capacity int           `json:"capacity"` // 0 means unbounded
	TTL      time.Duration `json:"ttl"`      // 0 or NoExpiry means slots never expire
}

// Registry owns the slots created by producing functions. A slot lives until
// it is released explicitly or evicted by capacity or TTL. Slots are never
// mutated after registration, a consumer that already holds one keeps a valid
// value after eviction.
type Registry struct {
	lru *expirable.LRU[Handle, *Slot]
}

type Entry struct {
	Handle    Handle
	Tag       string
	CreatedAt time.Time
}

// New creates a registry. With a positive TTL the underlying LRU starts an
// expiry goroutine that lives as long as the process, so a service should
// create one registry and keep it.
func New(config Config) *Registry {
	return &Registry{
		lru: expirable.NewLRU[Handle, *Slot](config.Capacity, nil, config.TTL),
	}
}

// Register stores value under tag in a new slot and returns its handle.
func (r *Registry) Register(tag string, value any) Handle {
	s := &Slot{}
	s.Register(tag, value)
	h := Handle(uuid.NewString())
	r.lru.Add(h, s)
	return h
}

// Slot returns the slot for the handle or nil if the registry does not hold it.
func (r *Registry) Slot(h Handle) *Slot {
	s, ok := r.lru.Get(h)
	if !ok {
		return nil
	}
	return s
}

func (r *Registry) Release(h Handle) bool {
	return r.lru.Remove(h)
}

func (r *Registry) Len() int {
	return r.lru.Len()
}

// Entries lists live slots ordered by creation time.
func (r *Registry) Entries() []Entry {
	var ee []Entry
	for _, h := range r.lru.Keys() {
		s, ok := r.lru.Peek(h)
		if !ok || s.empty() {
			continue
		}
		ee = append(ee, Entry{Handle: h, Tag: s.Tag(), CreatedAt: s.CreatedAt()})
	}
	sort.SliceStable(ee, func(i, j int) bool {
		return ee[i].CreatedAt.Before(ee[j].CreatedAt)
	})
	return ee
}

// Reader retrieves the Generator stored under ReaderTag.
func (r *Registry) Reader(h Handle) (Generator, error) {
	return Lookup[Generator](r, h, ReaderTag)
}

func Lookup[T any](r *Registry, h Handle, tag string) (T, error) {
	return Retrieve[T](r.Slot(h), tag)
}
