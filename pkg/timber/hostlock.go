package timber

// HostLock is a host runtime's global execution lock, such as an embedding
// interpreter's lock. Teardown releases it before blocking on the pool lock
// and reacquires it immediately after, so the two locks are never waited on
// in opposite orders.
type HostLock interface {
	Release()
	Reacquire()
}

type noHostLock struct{}

func (noHostLock) Release()   {}
func (noHostLock) Reacquire() {}

// withoutHost runs fn with the host lock released.
func withoutHost(h HostLock, fn func()) {
	h.Release()
	defer h.Reacquire()
	fn()
}
