package fetch

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Exchange is a completed round trip: what was sent and what came back.
// A non-2xx status is a valid exchange, not an error.
type Exchange struct {
	RequestURL     string
	RequestMethod  string
	RequestHeaders string
	RequestBody    []byte

	Status          string
	StatusCode      int
	ResponseHeaders string
	ResponseBody    []byte

	RemoteAddress string
	Timings       Timings
}

// Timings are the phases of the round trip in milliseconds.
type Timings struct {
	Start        time.Time `json:"start"`
	DNSLookup    float64   `json:"dns_lookup_ms"`
	Connect      float64   `json:"connect_ms"`
	TLSHandshake float64   `json:"tls_handshake_ms"`
	Server       float64   `json:"server_ms"`
	Response     float64   `json:"response_ms"`
	Total        float64   `json:"total_ms"`
	ConnReused   bool      `json:"conn_reused"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Exchange performs the request with tracing enabled and materializes both
// sides of the round trip.
func (d *Descriptor) Exchange(ctx context.Context) (*Exchange, error) {
	start := time.Now()
	if err := d.settings.wait(ctx); err != nil {
		d.settings.metrics.observe(modeEager, start, err)
		return nil, &FetchError{URL: d.url, Err: err}
	}
	resp, err := d.newRequest(ctx).
		EnableTrace().
		Execute(d.method, d.url)
	d.settings.metrics.observe(modeEager, start, err)
	if err != nil {
		d.settings.logger.Debug("exchange failed", zap.String("method", d.method), zap.String("url", d.url), zap.Error(err))
		return nil, &FetchError{URL: d.url, Err: err}
	}

	body := resp.Body()
	if body == nil {
		body = []byte{}
	}
	d.settings.metrics.addBytes(modeEager, len(body))

	ex := &Exchange{
		RequestURL:      d.url,
		RequestMethod:   d.method,
		Status:          resp.Status(),
		StatusCode:      resp.StatusCode(),
		ResponseHeaders: headerText(resp.Header()),
		ResponseBody:    body,
	}
	if raw := resp.Request.RawRequest; raw != nil {
		ex.RequestURL = raw.URL.String()
		ex.RequestMethod = raw.Method
		ex.RequestHeaders = headerText(raw.Header)
	}
	if raw := resp.Request.RawRequest; raw == nil || raw.Method != http.MethodGet {
		ex.RequestBody = d.body
	}
	if ex.RequestBody == nil {
		ex.RequestBody = []byte{}
	}

	ti := resp.Request.TraceInfo()
	if ti.RemoteAddr != nil {
		ex.RemoteAddress = ti.RemoteAddr.String()
	}
	ex.Timings = Timings{
		Start:        start.UTC(),
		DNSLookup:    ms(ti.DNSLookup),
		Connect:      ms(ti.TCPConnTime),
		TLSHandshake: ms(ti.TLSHandshake),
		Server:       ms(ti.ServerTime),
		Response:     ms(ti.ResponseTime),
		Total:        ms(ti.TotalTime),
		ConnReused:   ti.IsConnReused,
	}

	d.settings.logger.Debug("exchange done",
		zap.String("method", ex.RequestMethod),
		zap.String("url", d.url),
		zap.Int("status", ex.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ex, nil
}

// headerText renders headers in wire format, one "Name: value" line each.
func headerText(h http.Header) string {
	var buf bytes.Buffer
	h.Write(&buf)
	return buf.String()
}
