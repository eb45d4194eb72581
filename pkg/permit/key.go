package permit

// Key addresses one bucket of a Limiter. The zero Key is valid: it names the
// default bucket shared by callers that have no key of their own, and it can
// never collide with a wrapped key value, including the zero value of K.
type Key[K comparable] struct {
	value K
	ok    bool
}

// KeyOf wraps a caller-supplied key value.
func KeyOf[K comparable](v K) Key[K] {
	return Key[K]{value: v, ok: true}
}

// Get returns the wrapped value and whether the Key wraps one. The zero Key
// reports false.
func (k Key[K]) Get() (K, bool) {
	return k.value, k.ok
}
