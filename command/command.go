package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sko00o/plunger-kafka/message"
)

// Cat reads messages from a target, one at a time.
type Cat interface {
	Initialize(args Arguments) error
	BeforeFirstMessage(ctx context.Context, args Arguments) error
	// NextMessage returns nil without error when no message is available.
	NextMessage(ctx context.Context, args Arguments) (*message.Message, error)
	IsSystemHeader(name string) bool
	Close() error
}

// Put writes messages to a target, one at a time.
type Put interface {
	Initialize(args Arguments) error
	BeforeFirstMessage(ctx context.Context, args Arguments) error
	SendMessage(ctx context.Context, args Arguments, msg *message.Message, count int64) error
	Close() error
}

type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// maxLineSize bounds a single message line read by RunPut.
const maxLineSize = 64 << 20

// RunCat pulls messages until none is available, the limit is reached or
// ctx is done, and writes each of them as a line to w.
func RunCat(ctx context.Context, log Logger, c Cat, args Arguments, w io.Writer) (count int64, err error) {
	if err := c.Initialize(args); err != nil {
		return 0, wrap(err, "initialize")
	}
	defer closeCommand(log, c)

	if err := c.BeforeFirstMessage(ctx, args); err != nil {
		return 0, wrap(err, "connect")
	}

	keep := func(string) bool { return true }
	if args.HideSystem {
		keep = func(name string) bool { return !c.IsSystemHeader(name) }
	}

	for !args.HasLimit() || count < args.Limit {
		if ctx.Err() != nil {
			log.Debugf("cat canceled after %d messages", count)
			return count, nil
		}

		msg, err := c.NextMessage(ctx, args)
		if err != nil {
			return count, wrap(err, "read message")
		}
		if msg == nil {
			break
		}

		line, err := message.Format(msg, keep)
		if err != nil {
			return count, wrap(err, "format message")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return count, wrap(err, "write message")
		}
		count++
	}

	log.Debugf("cat finished after %d messages", count)
	return count, nil
}

// RunPut reads message lines from r and sends them one by one.
func RunPut(ctx context.Context, log Logger, p Put, args Arguments, r io.Reader) (count int64, err error) {
	if err := p.Initialize(args); err != nil {
		return 0, wrap(err, "initialize")
	}
	defer closeCommand(log, p)

	if err := p.BeforeFirstMessage(ctx, args); err != nil {
		return 0, wrap(err, "connect")
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if args.HasLimit() && count >= args.Limit {
			break
		}
		if ctx.Err() != nil {
			log.Debugf("put canceled after %d messages", count)
			return count, nil
		}

		line := scanner.Text()
		if line == "" {
			continue
		}
		msg, err := message.Parse(line)
		if err != nil {
			return count, wrap(err, "parse message %d", count+1)
		}
		if err := p.SendMessage(ctx, args, msg, count); err != nil {
			return count, wrap(err, "send message %d", count+1)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, wrap(err, "read input")
	}

	log.Debugf("put finished after %d messages", count)
	return count, nil
}

type closer interface {
	Close() error
}

func closeCommand(log Logger, c closer) {
	if err := c.Close(); err != nil {
		log.Errorf("close: %v", err)
	}
}

func wrap(err error, format string, args ...interface{}) error {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr
	}
	return Errorf(err, "%s: %v", fmt.Sprintf(format, args...), err)
}
