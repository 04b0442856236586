package registry

import "context"

// Registry advertises which instance currently hosts a vault, so
// multiple households can be spread across processes behind a router.
type Registry interface {
	Register(ctx context.Context, vaultID string) error
	Deregister(ctx context.Context, vaultID string) error
	Lookup(ctx context.Context, vaultID string) (string, error)
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}
