package registry

import "context"

// Noop is used when no Redis address is configured, for single-instance
// deployments and tests.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Register(context.Context, string) error   { return nil }
func (*Noop) Deregister(context.Context, string) error { return nil }
func (*Noop) Lookup(context.Context, string) (string, error) {
	return "", nil
}
func (*Noop) StartHeartbeat(context.Context) error { return nil }
func (*Noop) StopHeartbeat()                       {}
func (*Noop) Close() error                         { return nil }
