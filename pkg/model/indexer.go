package model

// indexer interface is design to give a unique index to a (time-slot, resource) pair and vice versa. Indices are slot-major, so iterating them in ascending order visits time-slots in calendar order
type indexer interface {
	// Returns a unique index to a (time-slot, resource) pair
	Index(slot, resource uint64) uint64
	// Returns the (time-slot, resource) pair from a unique index
	Attributes(index uint64) (slot uint64, resource uint64)
	// Returns the number of distinct indices
	Size() uint64
}

func newIndexer(slots, resources uint64) indexer {
	return &indexerImplementation{
		slots:     slots,
		resources: resources,
	}
}
