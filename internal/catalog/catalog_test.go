package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductsAreComplete(t *testing.T) {
	products := Products()
	require.Len(t, products, 4)

	seen := map[int]bool{}
	for _, p := range products {
		assert.False(t, seen[p.ID], "duplicate product id %d", p.ID)
		seen[p.ID] = true

		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Tagline)
		assert.NotEmpty(t, p.Description)
		assert.Regexp(t, `^S/\d+\.\d{2}$`, p.Price)
		assert.NotEmpty(t, p.ImageURL)
	}
}

func TestProductsReturnsCopy(t *testing.T) {
	first := Products()
	first[0].Name = "mutated"

	second := Products()
	assert.NotEqual(t, "mutated", second[0].Name)
}
