// Package engine holds the tracker: the operations that record logs,
// keep the plan in step with them and build daily and weekly views.
//
// Every Log* call first makes the log durable, then runs reconciliation
// for the same user and date. Reconciliation completes each pending plan
// item the log satisfies through a conditional update, so two calls racing
// on one item complete it exactly once. A reconciliation that fails after
// the log committed is returned as a warning, and the read path (daily
// view, explicit Reconcile) re-derives the missing completions from the
// day's logs.
//
// The engine talks to storage only through PlanRepository and
// LogRepository. It never reads the wall clock directly; callers supply
// a Clock.
package engine
