// Package state holds the latest health of the generation service.
//
// The health monitor writes into a Store from its own goroutine and the UI
// reads copies through Snapshot on every tick. A failed check keeps the last
// known health and records the error, so the UI can show both.
//
//	store := &state.Store{}
//	health, err := client.FetchHealth(ctx)
//	store.Update(&health, err)
//	snap := store.Snapshot()
//	if snap.IsOffline() { ... }
//
// The zero Store is ready to use.
package state
