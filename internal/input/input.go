// Package input receives discovery records and stores them as autochecks.
package input

import (
	"log/slog"

	"chk.szuro.net/internal/logger"
)

// Inputer is a source of discovery records.
type Inputer interface {
	Prepare() error
	Start()
	Stop() error
	IsReady() bool
}

type baseInput struct {
	name string
	feed *Feed
}

// accept parses one line and queues it. Malformed lines are logged and
// dropped; the only error returned is ErrFeedClosed.
func (bi *baseInput) accept(line []byte) error {
	r, err := parseRecord(line)
	linesReceived.WithLabelValues(bi.name).Inc()
	if err != nil {
		parseErrors.WithLabelValues(bi.name).Inc()
		logger.Error("Failed to parse discovery line", slog.String("input", bi.name), slog.Any("error", err))
		return nil
	}
	return bi.feed.Send(r)
}

func (bi *baseInput) initCounters() {
	linesReceived.WithLabelValues(bi.name).Add(0)
	parseErrors.WithLabelValues(bi.name).Add(0)
}
