// Package store provides SQLite-backed storage for plan items and
// activity logs. It implements the engine's repository ports.
//
// # Critical Patterns
//
// Conditional completion:
//   - MarkCompleted is UPDATE ... WHERE completed = 0 AND id IN (...)
//   - RowsAffected is the number of items this call transitioned, so two
//     concurrent logs matching one item cannot both complete it
//
// Durable logs first:
//   - Log Create commits before it returns; reconciliation reads after it
//
// User scoping:
//   - Every query filters on user_id; there is no cross-user read path
//
// Deterministic ordering:
//   - Log reads: ORDER BY created_at ASC, id ASC
//   - Plan reads: ORDER BY time_of_day ASC, created_at ASC, id ASC
//
// # Value Encoding
//
//   - Calendar dates: TEXT YYYY-MM-DD (string order == date order)
//   - Times of day: TEXT HH:MM:SS
//   - Instants: TEXT fixed-width UTC (see timeLayout)
//   - Decimals: TEXT in plain notation, parsed back with apd
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
