package ring

// PushDropOldest pushes v, discarding the oldest buffered items until it fits.
// Each discarded item is passed to onDrop (which may be nil). It keeps at most
// Cap() pending items and favors fresh items over complete history.
// Returns false if the buffer was shut down and v was not accepted.
func PushDropOldest[T any](b *Buffer[T], v T, onDrop func(T)) bool {
	for !b.TryPush(v) {
		if b.Closed() {
			return false
		}
		old, ok := b.TryPop()
		if ok && onDrop != nil {
			onDrop(old)
		}
	}
	return true
}
