// Package integrity checks the inventory for drift between stored state and
// the invariants the repositories maintain, and repairs what it can.
//
// # Checks Provided
//
//   - loan_flags: items.is_on_loan must be true exactly when an unreturned
//     loan exists for the item. Repairable.
//   - label_counter: the label counter must be at or past every label in use
//     by an item or container. Repairable.
//   - schema: live table columns must match the embedded migrations for the
//     connected dialect. Report only.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks (supports ?fix=true).
package integrity
