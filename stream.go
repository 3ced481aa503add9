package duckhttp

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/hugr-lab/duckdb-http/pkg/fetch"
	"github.com/hugr-lab/duckdb-http/pkg/handles"
)

const streamBufferSize = 32 << 10

// streamHandler serves the body behind a request handle. Every call performs
// a new fetch.
func (s *Service) streamHandler(w http.ResponseWriter, r *http.Request) {
	h := handles.Handle(r.PathValue("handle"))
	g, err := s.handles.Reader(h)
	switch {
	case errors.Is(err, handles.ErrNotPresent):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stream, err := g.Generate(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		var fe *fetch.FetchError
		if errors.As(err, &fe) {
			status = http.StatusBadGateway
		}
		http.Error(w, err.Error(), status)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, streamBufferSize)
	var written int64
	for {
		n, rerr := stream.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				s.logger.Debug("stream client gone", zap.String("handle", string(h)), zap.Error(err))
				return
			}
			written += int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			// headers are already sent, the truncated body is all we can report
			s.logger.Warn("stream read failed", zap.String("handle", string(h)), zap.Error(rerr))
			return
		}
	}
	s.logger.Debug("stream served", zap.String("handle", string(h)), zap.Int64("bytes", written))
}
