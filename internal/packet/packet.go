// Package packet defines the canonical weather observation shape shared by
// every driver, HTTP intake handler, and sink in weex.
package packet

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Unit system tags, must stay in lockstep with Python WeeWX.
const (
	UnitsUS       = 1
	UnitsMetric   = 16
	UnitsMetricWX = 17
)

// HistoryCap bounds the live-state rolling history (§3 invariant).
const HistoryCap = 1000

// Kind tags the variant held by an ObservationValue.
type Kind int

const (
	KindNull Kind = iota
	KindFloat
	KindInteger
	KindString
)

// ObservationValue is a tagged union over {Float, Integer, String, Null}.
// Integer is always losslessly promotable to Float; String and Null are
// non-numeric and never participate in aggregation.
type ObservationValue struct {
	kind Kind
	f    float64
	i    int64
	s    string
}

// Float constructs a floating-point observation value.
func Float(v float64) ObservationValue { return ObservationValue{kind: KindFloat, f: v} }

// Integer constructs an integer observation value.
func Integer(v int64) ObservationValue { return ObservationValue{kind: KindInteger, i: v} }

// String constructs a string observation value.
func String(v string) ObservationValue { return ObservationValue{kind: KindString, s: v} }

// Null constructs the null observation value.
func Null() ObservationValue { return ObservationValue{kind: KindNull} }

// Kind reports which variant is held.
func (v ObservationValue) Kind() Kind { return v.kind }

// AsNumber returns the numeric projection of the value, or false if the
// value is a String or Null.
func (v ObservationValue) AsNumber() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInteger:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the raw string, only meaningful for KindString.
func (v ObservationValue) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// IsNull reports whether the value is the null variant.
func (v ObservationValue) IsNull() bool { return v.kind == KindNull }

// MarshalJSON renders the active variant verbatim, matching the untagged
// serde representation used by the wire format.
func (v ObservationValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindFloat:
		return json.Marshal(v.f)
	case KindInteger:
		return json.Marshal(v.i)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON recovers the variant from a bare JSON scalar: numbers
// without a fractional part or exponent become Integer, all other numbers
// become Float, strings become String, and null becomes Null.
func (v *ObservationValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	}
	if isWholeNumber(data) {
		var i int64
		if err := json.Unmarshal(data, &i); err == nil {
			*v = Integer(i)
			return nil
		}
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("observation value: %w", err)
	}
	*v = Float(f)
	return nil
}

func isWholeNumber(data []byte) bool {
	for _, c := range data {
		if c == '.' || c == 'e' || c == 'E' {
			return false
		}
	}
	return true
}

// WeatherPacket is the canonical, timestamped measurement bundle that flows
// from every driver and HTTP intake handler into live state and the
// archive aggregator.
type WeatherPacket struct {
	DateTime     int64                       `json:"dateTime"`
	Station      string                      `json:"station,omitempty"`
	Interval     int32                       `json:"interval,omitempty"`
	Observations map[string]ObservationValue `json:"-"`
}

// Clone returns a deep copy safe to retain independently of the original
// (live-state history and the interval buffer only ever hold clones).
func (p WeatherPacket) Clone() WeatherPacket {
	obs := make(map[string]ObservationValue, len(p.Observations))
	for k, v := range p.Observations {
		obs[k] = v
	}
	p.Observations = obs
	return p
}

type wireEnvelope struct {
	DateTime int64  `json:"dateTime"`
	Station  string `json:"station,omitempty"`
	Interval int32  `json:"interval,omitempty"`
}

// MarshalJSON flattens Observations as sibling top-level keys next to
// dateTime/station/interval, matching the wire format in spec §6 — the
// serialization strategy must produce this flattened shape verbatim for
// compatibility with existing INTERCEPTOR clients.
func (p WeatherPacket) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Observations)+3)
	out["dateTime"] = p.DateTime
	if p.Station != "" {
		out["station"] = p.Station
	}
	if p.Interval != 0 {
		out["interval"] = p.Interval
	}
	for k, v := range p.Observations {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON recovers a WeatherPacket from the flattened wire shape,
// routing dateTime/station/interval into their fields and everything else
// into Observations.
func (p *WeatherPacket) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var env wireEnvelope
	if v, ok := raw["dateTime"]; ok {
		if err := json.Unmarshal(v, &env.DateTime); err != nil {
			return fmt.Errorf("dateTime: %w", err)
		}
	}
	if v, ok := raw["station"]; ok {
		_ = json.Unmarshal(v, &env.Station)
	}
	if v, ok := raw["interval"]; ok {
		_ = json.Unmarshal(v, &env.Interval)
	}

	obs := make(map[string]ObservationValue, len(raw))
	for k, v := range raw {
		switch k {
		case "dateTime", "station", "interval":
			continue
		}
		var ov ObservationValue
		if err := json.Unmarshal(v, &ov); err != nil {
			return fmt.Errorf("observation %q: %w", k, err)
		}
		obs[k] = ov
	}

	p.DateTime = env.DateTime
	p.Station = env.Station
	p.Interval = env.Interval
	p.Observations = obs
	return nil
}

// AggregateType enumerates the aggregation strategies available to the
// rollup engine.
type AggregateType int

const (
	AggMin AggregateType = iota
	AggMax
	AggSum
	AggAvg
	AggLast
	AggFirst
	AggCount
)

// String renders the aggregate type the way it appears in archive/debug
// logging.
func (a AggregateType) String() string {
	switch a {
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggSum:
		return "sum"
	case AggAvg:
		return "avg"
	case AggLast:
		return "last"
	case AggFirst:
		return "first"
	case AggCount:
		return "count"
	default:
		return "unknown"
	}
}

// ArchiveColumns is the fixed schema of nullable numeric columns produced
// by the aggregator at interval boundaries (§3).
var ArchiveColumns = []string{
	"outTemp", "inTemp", "extraTemp1", "outHumidity", "inHumidity",
	"barometer", "pressure", "altimeter", "windSpeed", "windDir",
	"windGust", "windGustDir", "rain", "rainRate", "dewpoint",
	"windchill", "heatindex", "radiation", "UV", "rxCheckPercent",
}

// ArchiveRecord is produced by the aggregator at interval boundaries.
// Missing observations are left as nil; extra observation keys outside
// ArchiveColumns are dropped at this layer.
type ArchiveRecord struct {
	DateTime int64
	Interval int32
	UsUnits  int
	Values   map[string]*float64
}

// Column returns the archive value for a column name, or nil if it was
// never populated (either missing from the source packets, or outside the
// fixed schema).
func (r ArchiveRecord) Column(name string) *float64 {
	return r.Values[name]
}
