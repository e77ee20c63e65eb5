package stock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestProduct_InStock checks that both availability and quantity are required.
func TestProduct_InStock(t *testing.T) {
	t.Parallel()

	require.True(t, Product{Available: true, Quantity: 5}.InStock())
	require.False(t, Product{Available: true, Quantity: 0}.InStock())
	require.False(t, Product{Available: false, Quantity: 5}.InStock())
	require.False(t, Product{Available: false, Quantity: 0}.InStock())
}

// TestSnapshotOf drops alias-less products and keys the rest by alias.
func TestSnapshotOf(t *testing.T) {
	t.Parallel()

	snapshot := SnapshotOf([]Product{
		{Name: "Whey", Alias: "whey-1kg", Available: true, Quantity: 3},
		{Name: "Nameless", Alias: "", Available: true, Quantity: 9},
	})

	require.Len(t, snapshot, 1)
	require.Equal(t, 3, snapshot["whey-1kg"].Quantity)
	require.Equal(t, 1, snapshot.InStockCount())
}

// TestDiff_SelfIsEmpty verifies diffing a snapshot with itself signals nothing.
func TestDiff_SelfIsEmpty(t *testing.T) {
	t.Parallel()

	snapshot := Snapshot{
		"a": {Alias: "a", Available: true, Quantity: 2},
		"b": {Alias: "b", Available: false, Quantity: 0},
	}

	newlyIn, newlyOut := Diff(snapshot, snapshot)
	require.Empty(t, newlyIn)
	require.Empty(t, newlyOut)
}

// TestDiff_ColdStartNeverSignals ensures an alias absent from previous
// produces no signal regardless of its current state.
func TestDiff_ColdStartNeverSignals(t *testing.T) {
	t.Parallel()

	current := Snapshot{
		"fresh-in":  {Alias: "fresh-in", Available: true, Quantity: 10},
		"fresh-out": {Alias: "fresh-out", Available: false, Quantity: 0},
	}

	newlyIn, newlyOut := Diff(Snapshot{}, current)
	require.Empty(t, newlyIn)
	require.Empty(t, newlyOut)
}

// TestDiff_Transitions covers both transition directions and the no-signal cases.
func TestDiff_Transitions(t *testing.T) {
	t.Parallel()

	previous := Snapshot{
		"restocked": {Alias: "restocked", Available: false, Quantity: 0},
		"soldout":   {Alias: "soldout", Available: true, Quantity: 4},
		"steady":    {Alias: "steady", Available: true, Quantity: 7},
		"vanished":  {Alias: "vanished", Available: true, Quantity: 1},
	}
	current := Snapshot{
		"restocked": {Alias: "restocked", Available: true, Quantity: 5},
		"soldout":   {Alias: "soldout", Available: false, Quantity: 0},
		"steady":    {Alias: "steady", Available: true, Quantity: 6},
	}

	newlyIn, newlyOut := Diff(previous, current)

	require.Len(t, newlyIn, 1)
	require.Equal(t, "restocked", newlyIn[0].Alias)
	require.Len(t, newlyOut, 1)
	require.Equal(t, "soldout", newlyOut[0].Alias)
}

// TestDiff_QuantityZeroCountsAsOutOfStock treats available-but-empty as out of stock.
func TestDiff_QuantityZeroCountsAsOutOfStock(t *testing.T) {
	t.Parallel()

	previous := Snapshot{"p": {Alias: "p", Available: true, Quantity: 2}}
	current := Snapshot{"p": {Alias: "p", Available: true, Quantity: 0}}

	newlyIn, newlyOut := Diff(previous, current)
	require.Empty(t, newlyIn)
	require.Len(t, newlyOut, 1)
}

// TestDiff_DeterministicOrder verifies output follows sorted alias order.
func TestDiff_DeterministicOrder(t *testing.T) {
	t.Parallel()

	previous := Snapshot{
		"b": {Alias: "b", Available: false, Quantity: 0},
		"a": {Alias: "a", Available: false, Quantity: 0},
		"c": {Alias: "c", Available: false, Quantity: 0},
	}
	current := Snapshot{
		"c": {Alias: "c", Available: true, Quantity: 1},
		"a": {Alias: "a", Available: true, Quantity: 1},
		"b": {Alias: "b", Available: true, Quantity: 1},
	}

	for i := 0; i < 10; i++ {
		newlyIn, _ := Diff(previous, current)
		require.Equal(t, []string{"a", "b", "c"}, []string{newlyIn[0].Alias, newlyIn[1].Alias, newlyIn[2].Alias})
	}
}
