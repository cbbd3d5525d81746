// Package disposable provides a minimal handle for undoing a registration.
package disposable

// Disposable releases a previously acquired registration.
type Disposable interface {
	Dispose()
}

type disposeFunc func()

func (f disposeFunc) Dispose() {
	f()
}

// NewDisposable wraps a cleanup function as a Disposable.
func NewDisposable(f func()) Disposable {
	return disposeFunc(f)
}
