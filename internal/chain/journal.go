package chain

// Journaled setters. Every contract mutation goes through these so a failed
// transaction can be unwound in reverse order.

// Set assigns v to *p and records the previous value.
func Set[T any](tx *Tx, p *T, v T) {
	prev := *p
	tx.OnRevert(func() { *p = prev })
	*p = v
}

// SetMap assigns m[k] = v and records whether the key existed before.
func SetMap[K comparable, V any](tx *Tx, m map[K]V, k K, v V) {
	prev, existed := m[k]
	tx.OnRevert(func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
	m[k] = v
}

// DeleteMap removes k from m, restoring it on revert.
func DeleteMap[K comparable, V any](tx *Tx, m map[K]V, k K) {
	prev, existed := m[k]
	if !existed {
		return
	}
	tx.OnRevert(func() { m[k] = prev })
	delete(m, k)
}
