package kafkago

import "time"

type Logger interface {
	Infof(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

type OptionFunc func(*Handler) error

func WithLogger(log Logger) OptionFunc {
	return func(h *Handler) error {
		h.log = log
		return nil
	}
}

// WithLinger sets how long a poll waits for further messages of a batch.
func WithLinger(d time.Duration) OptionFunc {
	return func(h *Handler) error {
		h.linger = d
		return nil
	}
}
