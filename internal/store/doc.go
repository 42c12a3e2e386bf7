// Package store provides the SQLite-backed entity-relationship store the
// codec engine encodes into and decodes out of.
//
// Entities are identity-bearing rows tagged with an entity kind. Properties
// live in a generic bag: primitive attributes in the attributes table,
// to-one and to-many relationships in the links table (ord column NULL for
// unordered members). The store owns its schema: every kind's declared and
// inherited property names come from the schema.Schema handed to Open, and
// the store never invents property names of its own.
//
// Identity invariant: at most one entity per (kind, identifier scalar).
// FindOrCreate is atomic with respect to concurrent writers on the same
// store - the UNIQUE(kind, identifier) index plus an insert-or-select
// transaction guarantees two concurrent calls for the same identifier never
// both insert.
//
// The codec holds no locks of its own; callers sharing one store across
// goroutines wrap top-level encode/decode calls in RunExclusive.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
