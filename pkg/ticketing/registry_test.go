package ticketing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	s := NewSession("g1", Actor{ID: "o"}, "Grim Express", 6, 10, 1, Intake{})
	s.ChannelID = "c1"
	r.Register(s)

	require.Equal(t, s, r.Get("c1"))
	require.Nil(t, r.Get("c2"))
	require.Equal(t, 1, r.Len())

	require.True(t, r.HasOpenCategory("g1", "Grim Express"))
	require.False(t, r.HasOpenCategory("g1", "Ultra Weekly Express"))
	require.False(t, r.HasOpenCategory("g2", "Grim Express"))

	require.Len(t, r.ForGuild("g1"), 1)
	require.Empty(t, r.ForGuild("g2"))

	r.Remove("c1")
	require.Nil(t, r.Get("c1"))
	require.Equal(t, 0, r.Len())
}
