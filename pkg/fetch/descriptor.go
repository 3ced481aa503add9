package fetch

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/hugr-lab/duckdb-http/pkg/handles"
)

var _ handles.Generator = (*Descriptor)(nil)

// Descriptor is a deferred request. It is immutable; each Generate call
// performs its own request with its own transport client.
type Descriptor struct {
	method  string
	url     string
	headers string
	body    []byte
	cookies string

	settings settings
}

func (d *Descriptor) Method() string {
	return d.method
}

func (d *Descriptor) URL() string {
	return d.url
}

// Headers returns the raw headers argument. It is not sent with the request.
func (d *Descriptor) Headers() string {
	return d.headers
}

// Cookies returns the raw cookies argument. It is not sent with the request.
func (d *Descriptor) Cookies() string {
	return d.cookies
}

// newRequest builds the resty request of one round trip.
func (d *Descriptor) newRequest(ctx context.Context) *resty.Request {
	r := d.settings.newRestyClient().R().SetContext(ctx)
	if len(d.body) > 0 {
		r.SetBody(d.body)
	}
	return r
}

// Generate sends the request and returns the response body without reading it.
// The caller must close the stream.
func (d *Descriptor) Generate(ctx context.Context) (io.ReadCloser, error) {
	start := time.Now()
	if err := d.settings.wait(ctx); err != nil {
		d.settings.metrics.observe(modeLazy, start, err)
		return nil, &FetchError{URL: d.url, Err: err}
	}
	resp, err := d.newRequest(ctx).
		SetDoNotParseResponse(true).
		Execute(d.method, d.url)
	d.settings.metrics.observe(modeLazy, start, err)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		d.settings.logger.Debug("lazy fetch failed", zap.String("url", d.url), zap.Error(err))
		return nil, &FetchError{URL: d.url, Err: err}
	}
	d.settings.logger.Debug("lazy fetch started",
		zap.String("method", d.method),
		zap.String("url", d.url),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &bodyStream{
		url:     d.url,
		body:    resp.RawBody(),
		metrics: d.settings.metrics,
	}, nil
}

// Bytes performs the request and materializes the body.
func (d *Descriptor) Bytes(ctx context.Context) ([]byte, error) {
	start := time.Now()
	if err := d.settings.wait(ctx); err != nil {
		d.settings.metrics.observe(modeEager, start, err)
		return nil, &FetchError{URL: d.url, Err: err}
	}
	resp, err := d.newRequest(ctx).
		Execute(d.method, d.url)
	d.settings.metrics.observe(modeEager, start, err)
	if err != nil {
		d.settings.logger.Debug("eager fetch failed", zap.String("url", d.url), zap.Error(err))
		return nil, &FetchError{URL: d.url, Err: err}
	}
	body := resp.Body()
	if body == nil {
		body = []byte{}
	}
	d.settings.metrics.addBytes(modeEager, len(body))
	d.settings.logger.Debug("eager fetch done",
		zap.String("method", d.method),
		zap.String("url", d.url),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// bodyStream counts delivered bytes and reports read failures as FetchError.
type bodyStream struct {
	url     string
	body    io.ReadCloser
	metrics *Metrics
}

func (s *bodyStream) Read(p []byte) (int, error) {
	if s.body == nil {
		return 0, io.EOF
	}
	n, err := s.body.Read(p)
	s.metrics.addBytes(modeLazy, n)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &FetchError{URL: s.url, Err: err}
	}
	return n, err
}

func (s *bodyStream) Close() error {
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}
