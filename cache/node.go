package cache

// node is an intrusive doubly linked list element owned by the memory store.
// It carries the key/value alongside list links and the entry's cost.
type node[V any] struct {
	key string
	val V

	// Intrusive list links: head is MRU, tail is LRU.
	prev *node[V]
	next *node[V]

	// Logical weight of the value, summed into the store's total cost.
	// Never negative.
	cost int64
}
