package dataaccess

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDeductPointsPipeline(t *testing.T) {
	pipeline := deductPointsPipeline(5)
	require.Len(t, pipeline, 1)

	stage := pipeline[0]
	require.Len(t, stage, 1)
	require.Equal(t, "$set", stage[0].Key)

	set, ok := stage[0].Value.(bson.M)
	require.True(t, ok)

	// The balance is floored at zero inside the same update that
	// subtracts, so a concurrent credit cannot be lost to a
	// read-then-write.
	points, ok := set["points"].(bson.M)
	require.True(t, ok)
	maxArgs, ok := points["$max"].(bson.A)
	require.True(t, ok)
	require.Equal(t, 0, maxArgs[0])

	sub, ok := maxArgs[1].(bson.M)
	require.True(t, ok)
	subArgs, ok := sub["$subtract"].(bson.A)
	require.True(t, ok)
	require.Len(t, subArgs, 2)
	require.Equal(t, 5, subArgs[1])

	// A missing balance deducts from zero, not from a null field.
	ifNull, ok := subArgs[0].(bson.M)
	require.True(t, ok)
	require.Equal(t, bson.A{"$points", 0}, ifNull["$ifNull"])
}
