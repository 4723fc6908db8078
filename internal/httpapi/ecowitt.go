package httpapi

import (
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/ask-23/weex/internal/packet"
)

// Unit conversion constants grounded on original_source/crates/weex-core/src/units.rs.
const (
	fahrenheitOffset = 32.0
	fahrenheitScale  = 5.0 / 9.0
	inHgToHpa        = 33.8638866667
	mphToMs          = 0.44704
	inToMm           = 25.4
)

func fToC(f float64) float64 { return (f - fahrenheitOffset) * fahrenheitScale }

// ecowittAliases maps every recognized vendor query parameter (Ecowitt's
// native names, plus the Weather Underground dialect it also accepts) to a
// canonical observation name and a conversion function applied to the raw
// numeric value. Parameters absent from this table are ignored rather than
// rejected.
var ecowittAliases = map[string]struct {
	canonical string
	convert   func(float64) float64
}{
	"tempf":          {"outTemp", fToC},
	"indoortempf":    {"inTemp", fToC},
	"temp1f":         {"extraTemp1", fToC},
	"dewptf":         {"dewpoint", fToC}, // Weather Underground alias
	"humidity":       {"humidity", identity},
	"indoorhumidity": {"inHumidity", identity},
	"baromin":        {"barometer", inHgToHpaFn},
	"baromrelin":     {"barometer", inHgToHpaFn}, // WU relative-pressure alias
	"baromabsin":     {"barometerAbs", inHgToHpaFn},
	"windspeedmph":   {"windSpeed", mphToMsFn},
	"windgustmph":    {"windGust", mphToMsFn},
	"winddir":        {"windDir", identity},
	"winddir_avg10m": {"windDir", identity},
	"rainin":         {"rainRate", inToMmFn},
	"dailyrainin":    {"dailyRain", inToMmFn},
	"solarradiation": {"radiation", identity},
	"uv":             {"uv", identity},
	"windchillf":     {"windchill", fToC},
}

func identity(v float64) float64   { return v }
func inHgToHpaFn(v float64) float64 { return v * inHgToHpa }
func mphToMsFn(v float64) float64   { return v * mphToMs }
func inToMmFn(v float64) float64    { return v * inToMm }

// ignoredParams are vendor fields with no canonical observation mapping:
// authentication or identity fields consumed elsewhere (ingestVendorUpload
// reads ID/PASSKEY/stationtype for station identity; see server.go) plus
// fields that carry no weather observation at all. Both Ecowitt (PASSKEY,
// stationtype) and Weather Underground (ID, PASSWORD) dialects use these.
var ignoredParams = map[string]bool{
	"PASSKEY": true, "stationtype": true, "freq": true, "model": true,
	"ID": true, "PASSWORD": true, "softwaretype": true, "action": true,
	"realtime": true, "rtfreq": true,
}

// parseEcowitt translates one vendor query string (from either a GET query
// string or a POST application/x-www-form-urlencoded body — both dialects
// are accepted identically per SPEC_FULL.md §1 item 2) into a canonical
// WeatherPacket. Malformed numeric fields are skipped rather than erroring,
// since malformed uploads must still receive a 200 per vendor convention
// (SPEC_FULL.md §4).
func parseEcowitt(values url.Values, station string) packet.WeatherPacket {
	obs := make(map[string]packet.ObservationValue)

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if ignoredParams[key] {
			continue
		}
		alias, ok := ecowittAliases[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(vals[0], 64)
		if err != nil {
			continue
		}
		obs[alias.canonical] = packet.Float(alias.convert(f))
	}

	dateTime := parseDateUTC(values.Get("dateutc"))

	return packet.WeatherPacket{
		DateTime:     dateTime,
		Station:      station,
		Observations: obs,
	}
}

// parseDateUTC parses Ecowitt's "dateutc" parameter ("YYYY-MM-DD HH:MM:SS",
// or the literal "now"), falling back to wall-clock time on any parse
// failure so a malformed timestamp never rejects an otherwise-valid upload.
func parseDateUTC(raw string) int64 {
	if raw == "" || raw == "now" {
		return time.Now().Unix()
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", raw, time.UTC)
	if err != nil {
		return time.Now().Unix()
	}
	return t.Unix()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
