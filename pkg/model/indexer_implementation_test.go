package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexAndAttributesDeterministic(t *testing.T) {
	// Arrange
	scenarios := [][2]uint64{
		{3, 3},
		{20, 5},
		{15, 7},
		{30, 35},
		{1, 4},
		{60, 1},
	}

	for _, scenario := range scenarios {
		var Slots uint64 = scenario[0]
		var Resources uint64 = scenario[1]

		// Act
		indexer := newIndexer(Slots, Resources)

		indices := make([]uint64, 0, Slots*Resources)
		for slot := uint64(0); slot < Slots; slot++ {
			for resource := uint64(0); resource < Resources; resource++ {
				indices = append(indices, indexer.Index(slot, resource))
			}
		}

		// Assert
		assert.Equal(t, Slots*Resources, indexer.Size())
		for i, index := range indices {
			// Indices are dense and slot-major
			assert.Equal(t, uint64(i), index)

			slot, resource := indexer.Attributes(index)
			assert.Equal(t, index, indexer.Index(slot, resource))
		}
	}
}

func TestIndexAndAttributesNonDeterministic(t *testing.T) {
	for range 10 {
		// Arrange
		var Slots uint64 = uint64(rand.Intn(60) + 1)
		var Resources uint64 = uint64(rand.Intn(40) + 1)
		indexer := newIndexer(Slots, Resources)

		for range 100 {
			slot, resource := uint64(rand.Intn(int(Slots))), uint64(rand.Intn(int(Resources)))

			// Act
			index := indexer.Index(slot, resource)
			actualSlot, actualResource := indexer.Attributes(index)

			// Assert
			assert.Less(t, index, indexer.Size())
			assert.Equal(t, slot, actualSlot)
			assert.Equal(t, resource, actualResource)
		}
	}
}
