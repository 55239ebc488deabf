// Package parcheck is a deterministic concurrency-testing harness for
// cooperatively scheduled code.
//
// Test code marks named tasks with [Task] and named critical steps with
// [Operation]. [Runner.Run] executes a scenario in which the declared
// multiset of tasks runs concurrently while the harness serializes all
// operations into one totally-ordered schedule. Schedules are explored with
// a seeded [Random] strategy and reproduced exactly with [Replay]; every
// failure carries the schedule that caused it, formatted for the
// PARCHECK_REPLAY environment variable.
//
// Outside a scenario both entry points are transparent pass-throughs, and
// building with the parcheck_off tag compiles them down to identity
// wrappers.
package parcheck
