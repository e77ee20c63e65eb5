// Package state implements persistence for the stock Snapshot.
//
// The FileRepository stores and loads the snapshot as a JSON array of
// product records on disk, writing through a temp file plus atomic rename,
// and exposes a Repository interface that the checker service depends on.
package state
