// Package stock contains core domain types for the restock monitoring logic.
//
// It defines Product (one item's stock state), Snapshot (the keyed set of
// last-known states) and Diff, which classifies transitions between two
// snapshots into newly-in-stock and newly-out-of-stock lists.
package stock
