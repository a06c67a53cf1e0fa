package engine

import (
	"encoding/json"
	"testing"

	"gridbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositions_OrderedByID(t *testing.T) {
	t.Parallel()

	p := NewPositions()
	for _, id := range []int{5, 1, 3, 10, 2} {
		p.Set(id, models.Position{EntryPrice: float64(id)})
	}
	assert.Equal(t, []int{1, 2, 3, 5, 10}, p.IDs())
	assert.Equal(t, 5, p.Len())

	p.Set(3, models.Position{EntryPrice: 33})
	assert.Equal(t, 5, p.Len())
	pos, ok := p.Get(3)
	require.True(t, ok)
	assert.Equal(t, 33.0, pos.EntryPrice)

	p.Delete(3)
	p.Delete(42)
	assert.Equal(t, []int{1, 2, 5, 10}, p.IDs())
	assert.False(t, p.Has(3))

	ids := p.IDs()
	ids[0] = 99
	assert.Equal(t, []int{1, 2, 5, 10}, p.IDs())
}

func TestState_JSON(t *testing.T) {
	t.Parallel()

	st := newState(100)
	st.OpenPositions.Set(2, models.Position{EntryPrice: 100, Amount: 10, OpenedAt: 1})

	data, err := json.Marshal(st)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 100.0, decoded["balance"])
	positions := decoded["openPositions"].(map[string]any)
	assert.Contains(t, positions, "2")
	assert.Equal(t, []any{}, decoded["tradesHistory"])
}
