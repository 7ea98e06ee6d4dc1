//go:build syncprim_debug

package syncprim

// debugAssertions is true: misuse panics with a *MisuseError, close to the
// cause.
const debugAssertions = true
