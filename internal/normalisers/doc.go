// Package normalisers holds the implementations of the driven.Normaliser
// interface. The garmin subpackage flattens provider documents into
// destination rows; coerce provides the shared type coercion helpers.
//
// Normalisers are registered with a NormaliserRegistry at startup.
package normalisers
