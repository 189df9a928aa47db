package input

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"chk.szuro.net/internal/logger"
)

// DiscoveryPath is the endpoint accepting NDJSON discovery records.
const DiscoveryPath = "/discovery"

// HTTPInput accepts discovery records posted as NDJSON, optionally compressed
// with gzip, deflate or zstd.
type HTTPInput struct {
	baseInput
	mux     *http.ServeMux
	stopped atomic.Bool
}

func NewHTTPInput(mux *http.ServeMux, feed *Feed) *HTTPInput {
	return &HTTPInput{
		baseInput: baseInput{name: "http", feed: feed},
		mux:       mux,
	}
}

func (hi *HTTPInput) Prepare() error {
	hi.mux.HandleFunc(DiscoveryPath, hi.handleDiscovery)
	hi.initCounters()
	return nil
}

// Start is a no-op, records arrive through the shared HTTP server.
func (hi *HTTPInput) Start() {
	hi.stopped.Store(false)
}

// Stop makes later requests fail with 503.
func (hi *HTTPInput) Stop() error {
	hi.stopped.Store(true)
	return nil
}

func (hi *HTTPInput) IsReady() bool {
	return !hi.stopped.Load()
}

func (hi *HTTPInput) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	if hi.stopped.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	bodyReader, closeBody, status := decodeBody(r)
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	defer closeBody()

	reader := bufio.NewReader(bodyReader)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			logger.Error("Error reading request body", slog.Any("error", err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if line = strings.TrimSpace(line); line != "" {
			if err := hi.accept([]byte(line)); err != nil {
				logger.Warn("Rejecting discovery request", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		if err != nil {
			break
		}
	}
	w.WriteHeader(http.StatusOK)
}

func decodeBody(r *http.Request) (io.Reader, func(), int) {
	ce := r.Header.Get("Content-Encoding")
	switch strings.ToLower(ce) {
	case "", "identity":
		return r.Body, func() {}, http.StatusOK
	case "gzip":
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			logger.Error("Failed to create gzip reader", slog.Any("error", err))
			return nil, nil, http.StatusBadRequest
		}
		return gz, func() { gz.Close() }, http.StatusOK
	case "deflate":
		zr, err := zlib.NewReader(r.Body)
		if err != nil {
			logger.Error("Failed to create zlib/deflate reader", slog.Any("error", err))
			return nil, nil, http.StatusBadRequest
		}
		return zr, func() { zr.Close() }, http.StatusOK
	case "zstd":
		zr, err := zstd.NewReader(r.Body)
		if err != nil {
			logger.Error("Failed to create zstd reader", slog.Any("error", err))
			return nil, nil, http.StatusBadRequest
		}
		return zr, zr.Close, http.StatusOK
	default:
		logger.Error("Unsupported Content-Encoding", slog.String("encoding", ce))
		return nil, nil, http.StatusUnsupportedMediaType
	}
}
