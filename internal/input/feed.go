package input

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"chk.szuro.net/internal/autochecks"
	"chk.szuro.net/internal/logger"
)

// DefaultFlushInterval bounds how long a record waits in a partly filled
// buffer.
const DefaultFlushInterval = 5 * time.Second

// ErrFeedClosed is returned by Send after Close.
var ErrFeedClosed = errors.New("discovery feed is closed")

// Sink stores discovered services. *autochecks.Store implements it.
type Sink interface {
	Merge(host string, services []autochecks.Service) error
}

// Feed collects discovery records from the inputs and writes them to the sink
// in batches.
type Feed struct {
	Funnel chan Record

	sink          Sink
	buffer        int
	flushInterval time.Duration
	values        []Record

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewFeed(sink Sink, buffer int) *Feed {
	if buffer <= 0 {
		buffer = 1
	}
	return &Feed{
		Funnel:        make(chan Record, buffer*2),
		sink:          sink,
		buffer:        buffer,
		flushInterval: DefaultFlushInterval,
		done:          make(chan struct{}),
	}
}

// AcceptValues runs until the funnel is closed, then writes what is left.
func (f *Feed) AcceptValues() {
	defer close(f.done)

	ticker := time.NewTicker(f.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case r, ok := <-f.Funnel:
			if !ok {
				f.flush()
				return
			}
			f.values = append(f.values, r)
			feedBufferUsage.Set(float64(len(f.values)))
			if len(f.values) >= f.buffer {
				f.flush()
			}
		case <-ticker.C:
			f.flush()
		}
	}
}

// Send queues a record. It blocks while the funnel is full.
func (f *Feed) Send(r Record) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrFeedClosed
	}
	f.Funnel <- r
	return nil
}

// Close stops accepting records and waits for the last batch to be written.
// AcceptValues must be running.
func (f *Feed) Close() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.Funnel)
	}
	f.mu.Unlock()
	<-f.done
}

func (f *Feed) flush() {
	if len(f.values) == 0 {
		return
	}

	byHost := make(map[string][]autochecks.Service)
	var hosts []string
	for _, r := range f.values {
		if _, ok := byHost[r.Host]; !ok {
			hosts = append(hosts, r.Host)
		}
		byHost[r.Host] = append(byHost[r.Host], r.Service())
	}

	for _, host := range hosts {
		if err := f.sink.Merge(host, byHost[host]); err != nil {
			logger.Error("Failed to store discovered services",
				slog.String("host", host),
				slog.Int("services", len(byHost[host])),
				slog.Any("error", err))
		}
	}

	f.values = nil
	feedBufferUsage.Set(0)
}
