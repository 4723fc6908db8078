package sinks

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ask-23/weex/internal/packet"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// LineProtocolSink encodes every packet as a single InfluxDB line-protocol
// measurement and POSTs it to a /api/v2/write-compatible endpoint,
// grounded on original_source/crates/weewx-sinks/src/influx.rs, but using
// the influxdata/line-protocol/v2 encoder instead of hand-rolled string
// formatting so field escaping and numeric formatting follow the
// ecosystem's own rules.
type LineProtocolSink struct {
	client   *http.Client
	writeURL string
	token    string
}

// NewLineProtocolSink constructs a sink that writes to
// baseURL+"/api/v2/write?org="+org+"&bucket="+bucket, authenticated with
// an InfluxDB v2 API token.
func NewLineProtocolSink(baseURL, org, bucket, token string) (*LineProtocolSink, error) {
	if baseURL == "" || org == "" || bucket == "" || token == "" {
		return nil, fmt.Errorf("line protocol sink: incomplete configuration")
	}
	return &LineProtocolSink{
		client:   &http.Client{Timeout: 10 * time.Second},
		writeURL: fmt.Sprintf("%s/api/v2/write?org=%s&bucket=%s", baseURL, org, bucket),
		token:    token,
	}, nil
}

// EmitPacket encodes pkt as one "weather" measurement and writes it.
func (s *LineProtocolSink) EmitPacket(ctx context.Context, pkt packet.WeatherPacket) error {
	line, err := encodeLine(pkt)
	if err != nil {
		return fmt.Errorf("line protocol sink: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.writeURL, bytes.NewReader(line))
	if err != nil {
		return fmt.Errorf("line protocol sink: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+s.token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("line protocol sink: write: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("line protocol sink: write failed with status %s", resp.Status)
	}
	return nil
}

// Close has nothing to release; the sink reuses http.Client's pooled
// transport for its whole lifetime.
func (s *LineProtocolSink) Close() error { return nil }

func encodeLine(pkt packet.WeatherPacket) ([]byte, error) {
	var enc lineprotocol.Encoder
	enc.SetPrecision(lineprotocol.Second)
	enc.StartLine("weather")
	if pkt.Station != "" {
		enc.AddTag("station", pkt.Station)
	}
	for name, v := range pkt.Observations {
		switch v.Kind() {
		case packet.KindFloat:
			f, _ := v.AsNumber()
			enc.AddField(name, lineprotocol.MustNewValue(f))
		case packet.KindInteger:
			f, _ := v.AsNumber()
			enc.AddField(name, lineprotocol.MustNewValue(int64(f)))
		default:
			continue
		}
	}
	if pkt.Interval != 0 {
		enc.AddField("interval", lineprotocol.MustNewValue(int64(pkt.Interval)))
	}
	enc.EndLine(time.Unix(pkt.DateTime, 0))
	if err := enc.Err(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
