/*
Package state persists small key/value pairs of client state across restarts, such as the
id of the selected chat.

Two backends exist: FileStore keeps a JSON map in a file under the state directory, and
PostgresStore keeps rows in the client_state table.
*/
package state

import "context"

// Store is a string key/value store. Get reports false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
