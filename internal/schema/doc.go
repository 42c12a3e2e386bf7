// Package schema describes the entity kinds an entity store may hold: each
// kind's identifier attribute, its declared properties (attributes, to-one
// and to-many relationships), and its single optional parent kind.
//
// Inheritance is linear (one parent per kind) and property lookup resolves
// through the ancestor chain. AllPropertyNames - the union of a kind's own
// and inherited property names - backs every containment check the codec
// performs before reading or writing a property. The union is memoized per
// Schema instance; there is no package-level cache.
package schema
