package broadcast

// Option configures a Broadcaster.
type Option func(*options)

type options struct {
	onLag func(dropped uint64)
}

// WithLagHook registers a callback invoked from Publish every time a value is
// dropped from a full subscription queue. It must not block.
func WithLagHook(fn func(dropped uint64)) Option {
	return func(o *options) {
		o.onLag = fn
	}
}
