package model

type indexerImplementation struct {
	slots     uint64
	resources uint64
}

func (indexer *indexerImplementation) Index(slot, resource uint64) uint64 {
	return resource + indexer.resources*slot
}

func (indexer *indexerImplementation) Attributes(index uint64) (slot, resource uint64) {
	resource = index % indexer.resources
	slot = index / indexer.resources
	return slot, resource
}

func (indexer *indexerImplementation) Size() uint64 {
	return indexer.slots * indexer.resources
}
