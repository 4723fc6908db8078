// Package aggregate computes per-observation-type rollups over a set of
// canonical packets, grounded on the per-measurement accumulators in
// telegraf's statsd input (mean/median/stddev caches) generalized to the
// fixed Min/Max/Sum/Avg/First/Last/Count vocabulary weex needs.
package aggregate

import (
	"math"

	"github.com/ask-23/weex/internal/packet"
)

// Accumulator folds a stream of float64 observations into a single
// aggregate value per its configured AggregateType.
type Accumulator struct {
	kind   packet.AggregateType
	values []float64
}

// New constructs an Accumulator of the given kind.
func New(kind packet.AggregateType) *Accumulator {
	return &Accumulator{kind: kind}
}

// Add appends an observation.
func (a *Accumulator) Add(value float64) {
	a.values = append(a.values, value)
}

// Count reports how many values have been added so far.
func (a *Accumulator) Count() int { return len(a.values) }

// Result returns the aggregate, or false if no values were ever added.
func (a *Accumulator) Result() (float64, bool) {
	if len(a.values) == 0 {
		return 0, false
	}
	switch a.kind {
	case packet.AggMin:
		m := math.Inf(1)
		for _, v := range a.values {
			m = math.Min(m, v)
		}
		return m, true
	case packet.AggMax:
		m := math.Inf(-1)
		for _, v := range a.values {
			m = math.Max(m, v)
		}
		return m, true
	case packet.AggSum:
		var sum float64
		for _, v := range a.values {
			sum += v
		}
		return sum, true
	case packet.AggAvg:
		var sum float64
		for _, v := range a.values {
			sum += v
		}
		return sum / float64(len(a.values)), true
	case packet.AggFirst:
		return a.values[0], true
	case packet.AggLast:
		return a.values[len(a.values)-1], true
	case packet.AggCount:
		return float64(len(a.values)), true
	default:
		return 0, false
	}
}

// defaultAggregateType is the deterministic observation-name -> default
// aggregate table from spec §4.1.
func defaultAggregateType(obsType string) packet.AggregateType {
	switch obsType {
	case "rain":
		return packet.AggSum
	case "outTemp", "inTemp", "dewpoint", "heatindex", "windchill",
		"barometer", "pressure", "altimeter", "windSpeed",
		"outHumidity", "inHumidity", "radiation", "UV":
		return packet.AggAvg
	case "windGust":
		return packet.AggMax
	case "windDir", "windGustDir":
		return packet.AggLast
	default:
		return packet.AggLast
	}
}

// Aggregate is the per-key rollup of one observation over a slice of
// packets: the aggregate type that was selected for it, and the computed
// result (or false if no numeric value of that key was ever observed).
type Aggregate struct {
	Kind  packet.AggregateType
	Value float64
	Valid bool
}

// Packets scans every observation of every packet, silently skipping
// non-numeric values, and routes each numeric value into an accumulator
// selected by the default aggregate table. Returns one Aggregate per
// observation key seen.
func Packets(packets []packet.WeatherPacket) map[string]Aggregate {
	accumulators := make(map[string]*Accumulator)
	kinds := make(map[string]packet.AggregateType)

	for _, pkt := range packets {
		for key, value := range pkt.Observations {
			n, ok := value.AsNumber()
			if !ok {
				continue
			}
			acc, exists := accumulators[key]
			if !exists {
				kind := defaultAggregateType(key)
				acc = New(kind)
				accumulators[key] = acc
				kinds[key] = kind
			}
			acc.Add(n)
		}
	}

	result := make(map[string]Aggregate, len(accumulators))
	for key, acc := range accumulators {
		v, ok := acc.Result()
		result[key] = Aggregate{Kind: kinds[key], Value: v, Valid: ok}
	}
	return result
}
