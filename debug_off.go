//go:build !syncprim_debug

package syncprim

// debugAssertions is false: misuse is logged, and execution continues.
const debugAssertions = false
