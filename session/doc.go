// Package session houses concrete implementations of the core.TranscriptStore.
// The interface itself (and the Round struct) live in the core package to
// centralize domain contracts. Keeping only implementations here prevents the
// engine from depending on concrete storage.
//
// Add additional backends (files, SQLite, etc.) alongside without changing any
// calling code; only the wiring layer decides which implementation to
// instantiate.
package session
