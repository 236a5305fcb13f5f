// Package testutil contains small composables and helpers shared by tests
// across packages: arithmetic units for pipeline assertions, a cyclic pair
// of schemas for recursion checks and a counter for recompute assertions.
// They are not intended for production usage.
package testutil
