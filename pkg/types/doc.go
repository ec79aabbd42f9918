// Package types defines the shared value, error, and limit vocabulary for
// the registry core: the value type tags a KeyValue may carry, the typed
// error taxonomy every operation reports through, the array growth
// constants, and the optional size limits the tree and the dispatcher
// enforce.
//
// Design goals:
//   - Stable, typed errors with categories a caller can branch on instead of
//     string-matching.
//   - Small, explicit constants for the array growth policy (MinSubkeys,
//     MinValues) so internal/tree's subkey and value arrays share one source
//     of truth.
//
// This package has no dependencies beyond the standard library.
package types
