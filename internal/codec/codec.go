package codec

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/schema"
	"github.com/roach88/graft/internal/store"
)

// Store is the contract the engine consumes from the persistent store.
// Implemented by *store.Store; tests may substitute their own. All
// operations are synchronous and blocking from the engine's point of view.
type Store interface {
	// Schema returns the entity schema the store enforces.
	Schema() *schema.Schema

	// FindOrCreate resolves kind's entity whose identifier attribute
	// equals scalar, inserting if absent. Must be atomic with respect to
	// concurrent writers sharing the store.
	FindOrCreate(ctx context.Context, kind, idAttr string, scalar attr.Value) (store.EntityRef, error)

	// GetProperty reads a property as a tagged raw value (absent,
	// attribute, single ref, or member list).
	GetProperty(ctx context.Context, ref store.EntityRef, name string) (store.RawValue, error)

	// SetAttribute writes a primitive attribute value.
	SetAttribute(ctx context.Context, ref store.EntityRef, name string, v attr.Value) error

	// SetLink writes a single-entity relationship.
	SetLink(ctx context.Context, ref store.EntityRef, name string, target store.EntityRef) error

	// SetLinks writes a multi-entity relationship.
	SetLinks(ctx context.Context, ref store.EntityRef, name string, targets []store.EntityRef, ordered bool) error

	// ClearProperty removes a property's value.
	ClearProperty(ctx context.Context, ref store.EntityRef, name string) error

	// RelationshipMembers returns a relationship's member entities and
	// whether the relationship is ordered.
	RelationshipMembers(ctx context.Context, ref store.EntityRef, name string) ([]store.EntityRef, bool, error)
}

// TraceFunc receives human-readable trace strings keyed by the current
// coding path. Purely observational: a trace sink never changes traversal
// behavior.
type TraceFunc func(path, msg string)

// Codec is the configured encode/decode engine. A Codec is immutable after
// New and safe to share; each Encode/Decode call owns its traversal state
// (container stack, coding path) exclusively.
type Codec struct {
	store     Store
	narrowing attr.Narrowing
	trace     TraceFunc
}

// Option configures a Codec.
type Option func(*Codec)

// WithNarrowing sets the engine-wide non-native-integer decoding strategy.
// Default: attr.NarrowExact.
func WithNarrowing(n attr.Narrowing) Option {
	return func(c *Codec) {
		c.narrowing = n
	}
}

// WithTrace installs a diagnostic trace sink.
func WithTrace(fn TraceFunc) Option {
	return func(c *Codec) {
		c.trace = fn
	}
}

// SlogTrace adapts a slog.Logger into a trace sink at debug level.
func SlogTrace(l *slog.Logger) TraceFunc {
	return func(path, msg string) {
		l.Debug(msg, "path", path)
	}
}

// New creates a Codec bound to a store.
func New(st Store, opts ...Option) *Codec {
	c := &Codec{
		store:     st,
		narrowing: attr.NarrowExact,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Narrowing returns the configured integer narrowing policy.
func (c *Codec) Narrowing() attr.Narrowing { return c.narrowing }

func (c *Codec) tracef(p Path, format string, args ...any) {
	if c.trace == nil {
		return
	}
	c.trace(p.String(), fmt.Sprintf(format, args...))
}
