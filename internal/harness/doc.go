// Package harness runs YAML-defined conformance scenarios against a real
// SQLite-backed store: each scenario declares a schema directory, a list of
// generic records to encode, and assertions over the resulting entity
// graph. Golden tests compare a canonical text dump of the graph against
// files under testdata/golden.
//
// The harness's Record type is a schema-driven generic record - both an
// Encodable and a Decodable whose field set comes from the entity schema
// rather than a concrete Go struct - so scenarios exercise the codec
// without writing Go types per entity kind.
package harness
