// Package coerce converts loosely typed provider values into the scalar
// column types of a destination row.
//
// Every function is total: inputs that cannot be converted yield "null"
// (ok=false or a nil interface) instead of an error or a panic.
package coerce
