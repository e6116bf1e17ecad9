// Package readapi answers queries from the projected read model and the conflict index.
// It never reads the event store, so its answers may lag behind the latest writes.
package readapi
