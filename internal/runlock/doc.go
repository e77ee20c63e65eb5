// Package runlock guards against overlapping runs sharing one snapshot file.
//
// It writes a pidfile next to the state and refuses to start while the
// recorded process is still alive, so a slow run and its successor from the
// scheduler cannot interleave their load/save cycles.
package runlock
