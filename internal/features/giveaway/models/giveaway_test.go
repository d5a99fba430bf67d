package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneDetachesSlices(t *testing.T) {
	g := &Giveaway{
		ID:       "g-1",
		Entrants: []string{"alice", "bob"},
		Winners:  []EntrantDetail{{ID: "alice", Username: "alice"}},
	}

	c := g.Clone()
	require.Equal(t, g.Entrants, c.Entrants)
	require.Equal(t, g.Winners, c.Winners)

	g.Entrants[0] = "mallory"
	g.Winners[0].Username = "renamed"
	g.AddEntrant("carol")

	assert.Equal(t, []string{"alice", "bob"}, c.Entrants)
	assert.Equal(t, "alice", c.Winners[0].Username)
}

func TestCloneOfEmptyRecord(t *testing.T) {
	g := &Giveaway{ID: "g-2"}
	c := g.Clone()

	require.Empty(t, c.Entrants)
	c.Entrants = append(c.Entrants, "alice")
	assert.Empty(t, g.Entrants)
}
