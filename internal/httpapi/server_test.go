package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ask-23/weex/internal/livestate"
	"github.com/ask-23/weex/internal/packet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLog struct{}

func (nopLog) Debugf(string, ...interface{}) {}
func (nopLog) Infof(string, ...interface{})  {}
func (nopLog) Warnf(string, ...interface{})  {}
func (nopLog) Errorf(string, ...interface{}) {}

type capturingIngestor struct {
	packets []packet.WeatherPacket
	err     error
}

func (c *capturingIngestor) IngestPacket(pkt packet.WeatherPacket) error {
	c.packets = append(c.packets, pkt)
	return c.err
}

func newTestServer() (*Server, *livestate.State, *capturingIngestor) {
	state := livestate.New(prometheus.NewRegistry())
	ing := &capturingIngestor{}
	return New(state, ing, nopLog{}), state, ing
}

func TestHealthzAlwaysOK(t *testing.T) {
	s, _, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyzReflectsState(t *testing.T) {
	s, state, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	state.SetReady(true)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentNoContentBeforeFirstPacket(t *testing.T) {
	s, _, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/current", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCurrentReturnsLatest(t *testing.T) {
	s, state, _ := newTestServer()
	state.Inject(packet.WeatherPacket{DateTime: 42, Station: "x"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/current", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dateTime":42`)
}

func TestHistoryRespectsLimitQueryParam(t *testing.T) {
	s, state, _ := newTestServer()
	for i := 0; i < 5; i++ {
		state.Inject(packet.WeatherPacket{DateTime: int64(i)})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=2", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got []packet.WeatherPacket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].DateTime)
	assert.Equal(t, int64(4), got[1].DateTime)
}

func TestHistoryDefaultsTo100(t *testing.T) {
	s, state, _ := newTestServer()
	for i := 0; i < 150; i++ {
		state.Inject(packet.WeatherPacket{DateTime: int64(i)})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got []packet.WeatherPacket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 100)
	assert.Equal(t, int64(149), got[len(got)-1].DateTime)
}

func TestEcowittGetTranslatesParams(t *testing.T) {
	s, _, ing := newTestServer()

	q := url.Values{}
	q.Set("PASSKEY", "abc123")
	q.Set("tempf", "68.0")
	q.Set("humidity", "55")
	q.Set("baromin", "29.92")
	q.Set("windspeedmph", "10")
	q.Set("dateutc", "2026-01-01 00:00:00")

	req := httptest.NewRequest(http.MethodGet, "/ingest/ecowitt?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ing.packets, 1)
	pkt := ing.packets[0]
	assert.Equal(t, "abc123", pkt.Station)

	temp, ok := pkt.Observations["outTemp"].AsNumber()
	require.True(t, ok)
	assert.InDelta(t, 20.0, temp, 0.01)

	baro, ok := pkt.Observations["barometer"].AsNumber()
	require.True(t, ok)
	assert.InDelta(t, 1013.25, baro, 1.0)
}

func TestEcowittGetUsesStationtypeWhenNoIdentityFieldPresent(t *testing.T) {
	s, _, ing := newTestServer()

	q := url.Values{}
	q.Set("stationtype", "GW1100")
	q.Set("dateutc", "now")
	q.Set("tempf", "72.5")
	q.Set("baromin", "29.92")
	q.Set("humidity", "55")
	q.Set("windspeedmph", "5.0")
	q.Set("windgustmph", "7.0")
	q.Set("winddir", "180")

	req := httptest.NewRequest(http.MethodGet, "/ingest/ecowitt?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ing.packets, 1)
	assert.Equal(t, "GW1100", ing.packets[0].Station)
}

func TestEcowittPostAcceptsWeatherUndergroundAliases(t *testing.T) {
	s, _, ing := newTestServer()

	form := url.Values{}
	form.Set("ID", "KSTATE1")
	form.Set("PASSWORD", "secret")
	form.Set("dewptf", "50")
	form.Set("baromrelin", "30.00")

	req := httptest.NewRequest(http.MethodPost, "/data", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ing.packets, 1)
	assert.Equal(t, "KSTATE1", ing.packets[0].Station)

	dewpoint, ok := ing.packets[0].Observations["dewpoint"].AsNumber()
	require.True(t, ok)
	assert.InDelta(t, 10.0, dewpoint, 0.01)
}

func TestMalformedPostBodyStillReturns200(t *testing.T) {
	s, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/data", strings.NewReader("%zz%%%"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadWithoutIdentityGetsAnonymousStableStationID(t *testing.T) {
	s, _, ing := newTestServer()

	q := url.Values{}
	q.Set("tempf", "68.0")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ingest/ecowitt?"+q.Encode(), nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	require.Len(t, ing.packets, 2)
	assert.NotEmpty(t, ing.packets[0].Station)
	assert.Equal(t, ing.packets[0].Station, ing.packets[1].Station)
}

func TestUnrecognizedParamsAreIgnored(t *testing.T) {
	s, _, ing := newTestServer()

	q := url.Values{}
	q.Set("PASSKEY", "abc")
	q.Set("someVendorField", "123")

	req := httptest.NewRequest(http.MethodGet, "/ingest/ecowitt?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ing.packets, 1)
	assert.NotContains(t, ing.packets[0].Observations, "someVendorField")
}
