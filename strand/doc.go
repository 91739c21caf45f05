// Package strand is a structured-concurrency runtime: a priority-aware
// scheduler, scopes that own the tasks spawned under them, dynamic task
// groups with completion-ordered result streams, serial-mailbox actors
// (package actor), and a one-shot bridge from callback APIs into
// awaited values.
//
// Tasks run on a fixed pool of run permits. A task holds a permit only
// while Running; every await parks the task and hands the permit to the
// next ready task, so suspended tasks never occupy a worker.
// Cancellation is cooperative: it is observed at suspension points and
// explicit polls, never by preemption.
package strand
