// Package attr defines the closed set of primitive value types the entity
// store can hold natively, plus the integer-narrowing policies applied when
// a caller requests an integer width the store does not represent.
//
// This package contains value types only. All other internal packages may
// import attr; attr imports nothing internal. This keeps the value model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Value is a sealed interface: only the nine types defined here
//     implement it. There is no "unknown attribute" escape hatch.
//   - Integers are always carried as Int (int64). Narrower widths exist
//     only at the decode boundary, governed by a Narrowing policy.
//   - Identifier scalars are never Bool (the store cannot index booleans
//     uniquely). Enforcement lives in the codec package.
//   - String canonicalization is NFC (golang.org/x/text/unicode/norm) so
//     that logically-equal identifiers compare and index as equal.
package attr
