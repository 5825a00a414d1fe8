package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainsSellInTypeOrder(t *testing.T) {
	sup := NewTrainSupply(DemoDefinition().TrainTypes)

	assert.True(t, sup.Available("2"))
	assert.False(t, sup.Available("3"))
	assert.False(t, sup.Available("6"))

	for i := 0; i < 6; i++ {
		_, _, err := sup.TakeNew("2")
		require.NoError(t, err)
	}

	assert.False(t, sup.Available("2"))
	assert.True(t, sup.Available("3"))
	assert.False(t, sup.Available("4"))
}

func TestReleasePutsLaterTypesOnSale(t *testing.T) {
	sup := NewTrainSupply(DemoDefinition().TrainTypes)

	sup.Release("4")
	assert.True(t, sup.Available("2"))
	assert.True(t, sup.Available("4"))
	assert.False(t, sup.Available("3"))
	assert.False(t, sup.Available("6"))

	cheapest, ok := sup.CheapestAvailable()
	require.True(t, ok)
	assert.Equal(t, "2", cheapest.Name)
}

func TestPhaseChangeReleasesTrains(t *testing.T) {
	g, err := NewGameState("test-game", DemoDefinition(), []string{"alice", "bob"})
	require.NoError(t, err)

	require.False(t, g.Supply.Available("6"))

	change, ok := g.Phase.AdvanceTo("5")
	require.True(t, ok)
	g.ApplyPhaseChange(change)

	assert.True(t, g.Supply.Available("6"))
}
