package packet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationValueNumeric(t *testing.T) {
	f, ok := Float(25.5).AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 25.5, f)

	i, ok := Integer(42).AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 42.0, i)

	_, ok = String("x").AsNumber()
	assert.False(t, ok)

	_, ok = Null().AsNumber()
	assert.False(t, ok)
	assert.True(t, Null().IsNull())
}

func TestWeatherPacketRoundTrip(t *testing.T) {
	p := WeatherPacket{
		DateTime: 1700000000,
		Station:  "gw1100",
		Interval: 5,
		Observations: map[string]ObservationValue{
			"outTemp": Float(21.5),
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outTemp":21.5`)
	assert.Contains(t, string(data), `"dateTime":1700000000`)

	var got WeatherPacket
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, p.DateTime, got.DateTime)
	assert.Equal(t, p.Station, got.Station)
	assert.Equal(t, p.Interval, got.Interval)
	v, ok := got.Observations["outTemp"].AsNumber()
	require.True(t, ok)
	assert.Equal(t, 21.5, v)
}

func TestWeatherPacketUnmarshalIntegerField(t *testing.T) {
	var p WeatherPacket
	err := json.Unmarshal([]byte(`{"dateTime":1,"humidity":55}`), &p)
	require.NoError(t, err)
	v := p.Observations["humidity"]
	assert.Equal(t, KindInteger, v.Kind())
}

func TestWeatherPacketCloneIsIndependent(t *testing.T) {
	p := WeatherPacket{
		DateTime:     1,
		Observations: map[string]ObservationValue{"outTemp": Float(1.0)},
	}
	clone := p.Clone()
	clone.Observations["outTemp"] = Float(99.0)

	v, _ := p.Observations["outTemp"].AsNumber()
	assert.Equal(t, 1.0, v)
}
