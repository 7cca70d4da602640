package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFallbackCatalog(t *testing.T) {
	// A guild with nothing stored gets the built-in catalog.
	values := PointValues(nil)
	slots := HelperSlots(nil)

	require.Equal(t, 10, Points(values, "Grim Express"))
	require.Equal(t, 6, Slots(slots, "Grim Express"))

	require.Equal(t, 8, Points(values, "Ultra Speaker Express"))
	require.Equal(t, 3, Slots(slots, "Ultra Speaker Express"))
}

func TestStoredCatalogWins(t *testing.T) {
	values := PointValues(map[string]int{"Grim Express": 2})
	require.Equal(t, 2, Points(values, "Grim Express"))

	// Stored catalogs replace the defaults entirely.
	require.Equal(t, 0, Points(values, "Ultra Weekly Express"))

	slots := HelperSlots(map[string]int{"Custom Run": 5})
	require.Equal(t, 5, Slots(slots, "Custom Run"))
	require.Equal(t, 3, Slots(slots, "Grim Express"))
}

func TestUnknownService(t *testing.T) {
	values := PointValues(nil)
	require.Equal(t, 0, Points(values, "No Such Run"))
	require.Equal(t, 3, Slots(HelperSlots(nil), "No Such Run"))
}

func TestServicesOrder(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]int
		want   []string
	}{
		{
			name:   "Defaults",
			values: PointValues(nil),
			want: []string{
				"Ultra Speaker Express",
				"Ultra Gramiel Express",
				"4-Man Ultra Daily Express",
				"7-Man Ultra Daily Express",
				"Ultra Weekly Express",
				"Grim Express",
				"Daily Temple Express",
			},
		},
		{
			name:   "CustomAppended",
			values: map[string]int{"Grim Express": 10, "B Run": 1, "A Run": 2},
			want:   []string{"Grim Express", "A Run", "B Run"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Services(tt.values))
		})
	}
}
