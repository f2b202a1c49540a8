// Package harness runs scripted reconciliation scenarios against a real
// store and tracker.
//
// A scenario is a YAML file that seeds plan items (and, optionally, logs
// written behind the tracker's back), drives a flow of log, complete,
// reconcile and read steps against a frozen clock, then checks
// assertions on the final plan state and weekly summaries.
//
// Every run uses a fresh in-memory SQLite database, a fixed clock and
// sequential log ids, so the step trace is byte-stable and can be
// compared against a golden file:
//
//	go test ./internal/harness -update
//
// regenerates testdata/golden/*.golden.
package harness
