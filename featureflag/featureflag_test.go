package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{string(FlagDisableSimulation), ""})
	require.Len(t, f, 1)

	t.Run("run if enabled", func(t *testing.T) {
		var runSimulation bool
		f.IfSet(FlagDisableSimulation, func() {
			runSimulation = true
		})
		require.True(t, runSimulation)

		var runStream bool
		f.IfSet(FlagDisableWebsocketStream, func() {
			runStream = true
		})
		require.False(t, runStream)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var runSimulation bool
		f.IfNotSet(FlagDisableSimulation, func() {
			runSimulation = true
		})
		require.False(t, runSimulation)

		var runStream bool
		f.IfNotSet(FlagDisableWebsocketStream, func() {
			runStream = true
		})
		require.True(t, runStream)
	})

	t.Run("nil flags", func(t *testing.T) {
		var empty FeatureFlag
		require.False(t, empty.IsSet(FlagDisablePointsEndpoint))
	})
}
