//go:build !linux

package syncprim

var defaultParker = NewTableParker()
