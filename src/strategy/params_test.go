package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeParams(t *testing.T) {
	specs := []ParamSpec{
		{Name: "lookback", Min: 2, Max: 500, Default: 20, Integer: true},
		{Name: "scale", Min: 1, Max: 100, Default: 20},
	}

	t.Run("fills defaults for missing parameters", func(t *testing.T) {
		out, err := canonicalizeParams("momentum", specs, nil)
		require.NoError(t, err)
		require.Equal(t, 20.0, out["lookback"])
		require.Equal(t, 20.0, out["scale"])
	})

	t.Run("rounds integer parameters", func(t *testing.T) {
		out, err := canonicalizeParams("momentum", specs, map[string]float64{"lookback": 14.6})
		require.NoError(t, err)
		require.Equal(t, 15.0, out["lookback"])
	})

	t.Run("rejects out of bounds values", func(t *testing.T) {
		_, err := canonicalizeParams("momentum", specs, map[string]float64{"lookback": 1000})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("rejects unknown parameter names", func(t *testing.T) {
		_, err := canonicalizeParams("momentum", specs, map[string]float64{"window": 10})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("rejects non finite values", func(t *testing.T) {
		_, err := canonicalizeParams("momentum", specs, map[string]float64{"scale": math.NaN()})
		require.ErrorIs(t, err, ErrInvalidParameter)

		_, err = canonicalizeParams("momentum", specs, map[string]float64{"scale": math.Inf(1)})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestParamSpecClamp(t *testing.T) {
	spec := ParamSpec{Name: "lookback", Min: 2, Max: 500, Integer: true}

	t.Run("clamps below the minimum", func(t *testing.T) {
		require.Equal(t, 2.0, spec.Clamp(-3))
	})

	t.Run("clamps above the maximum", func(t *testing.T) {
		require.Equal(t, 500.0, spec.Clamp(1e9))
	})

	t.Run("rounds integers inside bounds", func(t *testing.T) {
		require.Equal(t, 14.0, spec.Clamp(13.7))
	})

	t.Run("leaves float parameters unrounded", func(t *testing.T) {
		floatSpec := ParamSpec{Name: "fraction", Min: 0, Max: 1}
		require.Equal(t, 0.37, floatSpec.Clamp(0.37))
	})
}
