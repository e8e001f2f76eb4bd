// Package core defines the shared primitives of the duolog conversation
// engine: the Event type published by every component, the ordered
// EventChannel connecting background workers to the single presentation
// consumer, and the Session object holding one dialogue's configuration and
// lifecycle state.
//
// Nothing in this package performs I/O. All cross-goroutine communication in
// duolog flows through the EventChannel; session state itself is only ever
// written by the session worker.
package core
