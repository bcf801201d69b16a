package vpack

// ObjectScope opens an object on b and returns a closer to be deferred:
//
//	closeFn, err := vpack.ObjectScope(b, false, &closeErr)
//	if err != nil { return err }
//	defer closeFn()
//
// Go has no destructors, so unlike the reference implementation's RAII
// guards this cannot itself fail loudly from a defer; Close errors are
// reported through *errp if the caller supplies one, otherwise swallowed
// the way a C++ destructor would swallow a close failure.
func ObjectScope(b *Builder, unindexed bool, errp *error) (func(), error) {
	if err := b.OpenObject(unindexed); err != nil {
		return func() {}, err
	}
	return func() {
		if err := b.Close(); err != nil && errp != nil {
			*errp = err
		}
	}, nil
}

// ArrayScope is ObjectScope's array counterpart.
func ArrayScope(b *Builder, unindexed bool, errp *error) (func(), error) {
	if err := b.OpenArray(unindexed); err != nil {
		return func() {}, err
	}
	return func() {
		if err := b.Close(); err != nil && errp != nil {
			*errp = err
		}
	}, nil
}

// WithObject opens an object, runs fn, and closes the object regardless of
// whether fn returns an error. If closing itself fails and fn had
// succeeded, the close error is returned; otherwise fn's error wins.
func WithObject(b *Builder, unindexed bool, fn func() error) error {
	if err := b.OpenObject(unindexed); err != nil {
		return err
	}
	fnErr := fn()
	closeErr := b.Close()
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}

// WithArray is WithObject's array counterpart.
func WithArray(b *Builder, unindexed bool, fn func() error) error {
	if err := b.OpenArray(unindexed); err != nil {
		return err
	}
	fnErr := fn()
	closeErr := b.Close()
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}
