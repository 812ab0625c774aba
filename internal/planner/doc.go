// Package planner handles the planning phase of a rename session.
//
// The planner turns validated clauses into a conflict-checked Plan of moves,
// then orders those moves into a Schedule that is safe to execute one at a
// time. It never touches the filesystem beyond existence checks.
//
// Key responsibilities:
//   - Derive one Move per clause, keeping the parent directory
//   - Detect conflicts (shared destinations, untracked entries in the way)
//   - Order chains so every destination is vacated before it is filled
//   - Break cycles with a single temporary name each
package planner
