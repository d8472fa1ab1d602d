package lazyframe_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

func Test_GetConsistencyLevel_When_ContextHasNoLevel_Then_Strong(t *testing.T) {
	// act
	level := lazyframe.GetConsistencyLevel(context.Background())

	// assert
	assert.Equal(t, lazyframe.StrongConsistency, level)
	assert.False(t, lazyframe.ReadsFromReplica(context.Background()))
}

func Test_ConsistencyLevel_When_SetOnContext(t *testing.T) {
	// arrange
	eventual := lazyframe.WithEventualConsistency(context.Background())
	strongAgain := lazyframe.WithStrongConsistency(eventual)

	// assert
	assert.Equal(t, lazyframe.EventualConsistency, lazyframe.GetConsistencyLevel(eventual))
	assert.True(t, lazyframe.ReadsFromReplica(eventual))
	assert.Equal(t, lazyframe.StrongConsistency, lazyframe.GetConsistencyLevel(strongAgain))
	assert.False(t, lazyframe.ReadsFromReplica(strongAgain))
}

func Test_ConsistencyLevel_String(t *testing.T) {
	assert.Equal(t, "strong", lazyframe.StrongConsistency.String())
	assert.Equal(t, "eventual", lazyframe.EventualConsistency.String())
	assert.Equal(t, "unknown", lazyframe.ConsistencyLevel(7).String())
}
