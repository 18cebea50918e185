// Package labels issues the 4-character base-36 codes printed on asset
// labels.
//
// Items and containers draw from one shared sequence stored in the
// label_counter row. The Allocator reads and advances that row inside a
// single transaction: Postgres locks it with SELECT ... FOR UPDATE and SQLite
// serializes through immediate transactions. The counter is never cached in
// process memory, so any number of server processes can share a database.
package labels
