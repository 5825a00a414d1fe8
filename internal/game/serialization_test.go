package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateChecksumDeterministic(t *testing.T) {
	g, err := NewGameState("sum", DemoDefinition(), []string{"alice", "bob"})
	require.NoError(t, err)

	first := StateChecksum(g)
	assert.Equal(t, first, StateChecksum(g))
	assert.Equal(t, first, StateChecksum(g.Clone()))
}

func TestStateChecksumDetectsMutation(t *testing.T) {
	g, err := NewGameState("sum", DemoDefinition(), []string{"alice", "bob"})
	require.NoError(t, err)
	before := StateChecksum(g)

	clone := g.Clone()
	alice, _ := clone.PlayerByID("alice")
	alice.Cash += 10
	assert.NotEqual(t, before, StateChecksum(clone))

	clone2 := g.Clone()
	gnr, _ := clone2.CompanyByID("GNR")
	gnr.Holdings["bob"] = 1
	assert.NotEqual(t, before, StateChecksum(clone2))
}

func TestStateChecksumIgnoresReport(t *testing.T) {
	g, err := NewGameState("sum", DemoDefinition(), []string{"alice", "bob"})
	require.NoError(t, err)
	before := StateChecksum(g)

	g.Report.Add("presentation only")
	assert.Equal(t, before, StateChecksum(g))
}
