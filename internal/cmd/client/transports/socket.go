package transports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// SocketClient speaks the line protocol of the TCP listener.
type SocketClient struct {
	Addr string
	// MaxElapsed bounds dial retries. Zero means ten seconds.
	MaxElapsed time.Duration
	// ReplyWait is how long Send waits for more reply bytes before returning.
	ReplyWait time.Duration
}

func (s SocketClient) backoff(ctx context.Context) backoff.BackOff {
	max := s.MaxElapsed
	if max <= 0 {
		max = 10 * time.Second
	}
	return backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     100 * time.Millisecond,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         2 * time.Second,
		MaxElapsedTime:      max,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}, ctx)
}

// Dial connects to the listener, retrying with exponential backoff while the
// server is unreachable.
func (s SocketClient) Dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	var c net.Conn
	operation := func() error {
		var err error
		c, err = d.DialContext(ctx, "tcp", s.Addr)
		return err
	}
	if err := backoff.Retry(operation, s.backoff(ctx)); err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.Addr, err)
	}
	return c, nil
}

// Send writes payload and copies the server's reply to w. The reply is
// complete once no bytes arrive for ReplyWait.
func (s SocketClient) Send(ctx context.Context, payload []byte, w io.Writer) (int64, error) {
	c, err := s.Dial(ctx)
	if err != nil {
		return 0, err
	}
	defer c.Close()
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	if _, err := c.Write(payload); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	wait := s.ReplyWait
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}
	var total int64
	buf := make([]byte, 32*1024)
	for {
		_ = c.SetReadDeadline(time.Now().Add(wait))
		n, err := c.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err != nil {
			var ne net.Error
			if (errors.As(err, &ne) && ne.Timeout()) || errors.Is(err, io.EOF) {
				return total, nil
			}
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			return total, err
		}
	}
}
