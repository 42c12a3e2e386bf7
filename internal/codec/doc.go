// Package codec implements the bidirectional traversal engine between
// records (plain value graphs supplied by the integrator) and persistent
// store entities.
//
// Encoding walks a record field-by-field: primitives are boxed into store
// attribute values, relationship fields are resolved through identifier
// find-or-create or by recursively encoding a nested record, and every
// write lands on the entity the traversal is currently positioned on.
// Decoding walks an entity (or a relationship's member list) and
// reconstructs record fields, choosing between keyed, sequential, and
// single-value access depending on the container the traversal is
// positioned on.
//
// The traversal cursor is an explicit stack of tagged containers (entity,
// relationship collection, single value) with push-on-recurse, pop-on-return
// discipline. Popping the last container is a programming-contract
// violation and panics; every recoverable failure is a *Error carrying the
// coding path from the traversal root.
//
// The engine is single-threaded and synchronous: a call to Encode or Decode
// either runs to completion or fails, holds no internal locks, and opens no
// transaction. Callers sharing one store across goroutines serialize
// through the store's RunExclusive.
//
// Shape dispatch is explicit: records declare each relationship field as
// to-one, to-one-nested, to-many, or to-many-nested via distinct
// FieldEncoder/FieldDecoder calls. The engine never infers shape from a
// value's dynamic type and never probes by attempting a conversion and
// catching the failure.
package codec
