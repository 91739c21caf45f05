// Package actor provides serial-mailbox state containers for the
// strand runtime: the only sanctioned form of shared mutable state.
//
// Each actor owns an exclusive state payload and a single goroutine
// that executes queued invocations against it strictly one at a time,
// in arrival order. Callers never touch the payload directly; they
// send closures and await the reply. Calling into an actor from a task
// is always an asynchronous hop, even when the mailbox is empty.
//
// A registry of named, process-lifetime actors covers the global-actor
// pattern; the reserved "main" domain is created with the registry so
// work funneled through it runs on one consistent goroutine.
package actor
