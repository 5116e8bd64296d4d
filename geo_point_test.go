package railtopo

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateSystemMismatch(t *testing.T) {
	_, err := NewWGS84Point(13.4, 52.5).DistanceTo(NewMercatorPoint(0, 0))
	assert.True(t, errors.Is(err, ErrCoordinateSystemMismatch))

	d, err := NewDBRefPoint(0, 0).DistanceTo(NewDBRefPoint(3, 4))
	require.NoError(t, err)
	assert.Equal(t, 5.0, d)
}

func TestConvertRoundTrip(t *testing.T) {
	source := NewWGS84Point(13.3777, 52.5163)
	mercator, err := source.Convert(Mercator)
	require.NoError(t, err)
	assert.Equal(t, Mercator, mercator.System)
	assert.InDelta(t, 1489199.0, mercator.X(), 1.0)

	back, err := mercator.Convert(WGS84)
	require.NoError(t, err)
	assert.Equal(t, WGS84, back.System)
	assert.InDelta(t, source.X(), back.X(), 1e-9)
	assert.InDelta(t, source.Y(), back.Y(), 1e-9)

	same, err := source.Convert(WGS84)
	require.NoError(t, err)
	assert.Equal(t, source, same)
}

func TestConvertUnsupported(t *testing.T) {
	_, err := NewDBRefPoint(4500000, 5800000).Convert(WGS84)
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
	_, err = NewWGS84Point(0, 0).Convert(DBRef)
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
}

func TestParseCoordinateSystem(t *testing.T) {
	for _, cs := range []CoordinateSystem{WGS84, Mercator, DBRef} {
		parsed, err := ParseCoordinateSystem(cs.String())
		require.NoError(t, err)
		assert.Equal(t, cs, parsed)
	}
	_, err := ParseCoordinateSystem("gauss-krueger")
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
}

func TestGeoNodeDistance(t *testing.T) {
	a := NewGeoNode(NewMercatorPoint(0, 0), WithGeoNodeName("a"))
	b := NewGeoNode(NewMercatorPoint(0, 7))
	d, err := a.DistanceTo(b)
	require.NoError(t, err)
	assert.Equal(t, 7.0, d)

	cp := a.Copy()
	assert.Equal(t, a.ID, cp.ID)
	assert.Equal(t, "a", cp.Name)
	assert.False(t, a == cp)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, math.IsNaN(d))
}
