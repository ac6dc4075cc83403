package tcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/rzbill/ringlog/internal/assembler"
	"github.com/rzbill/ringlog/internal/device"
	"github.com/rzbill/ringlog/internal/ringlog"
	"github.com/rzbill/ringlog/pkg/log"
)

// DefaultReadChunk is the per-read buffer size.
const DefaultReadChunk = 1 << 20

// ConnObserver is notified as connections open and close.
type ConnObserver interface {
	ConnOpened()
	ConnClosed()
}

type noopConnObserver struct{}

func (noopConnObserver) ConnOpened() {}
func (noopConnObserver) ConnClosed() {}

// Options configures the socket server.
type Options struct {
	// ReadChunk bounds a single socket read. Zero means DefaultReadChunk.
	ReadChunk int
	Logger    log.Logger
	Observer  ConnObserver
}

// ConnInfo describes an open connection.
type ConnInfo struct {
	ID       string    `json:"id"`
	Remote   string    `json:"remote"`
	OpenedAt time.Time `json:"opened_at"`
}

type conn struct {
	info ConnInfo
	c    net.Conn
}

// Server feeds each connection's bytes through its own assembler into the
// device and answers every completed line with log contents.
type Server struct {
	dev    *device.Device
	chunk  int
	logger log.Logger
	obs    ConnObserver

	mu    sync.Mutex
	lis   net.Listener
	conns map[string]*conn
	wg    sync.WaitGroup
}

// New returns a server bound to dev.
func New(dev *device.Device, opts Options) *Server {
	s := &Server{
		dev:    dev,
		chunk:  opts.ReadChunk,
		logger: opts.Logger,
		obs:    opts.Observer,
		conns:  make(map[string]*conn),
	}
	if s.chunk <= 0 {
		s.chunk = DefaultReadChunk
	}
	if s.logger == nil {
		s.logger = log.NewNopLogger()
	}
	if s.obs == nil {
		s.obs = noopConnObserver{}
	}
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done or l fails. Open
// connections are closed and drained before Serve returns.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	s.lis = l
	s.mu.Unlock()
	s.logger.Info("listening", log.Str("addr", l.Addr().String()))

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	var err error
	for {
		c, aerr := l.Accept()
		if aerr != nil {
			if ctx.Err() == nil && !errors.Is(aerr, net.ErrClosed) {
				err = aerr
			}
			break
		}
		s.track(ctx, c)
	}
	s.Close()
	s.wg.Wait()
	return err
}

// Addr returns the listener address, nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Connections lists open connections, oldest first.
func (s *Server) Connections() []ConnInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConnInfo, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out
}

// Close stops accepting and closes every open connection.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		_ = s.lis.Close()
	}
	for _, c := range s.conns {
		_ = c.c.Close()
	}
}

func (s *Server) track(ctx context.Context, c net.Conn) {
	cn := &conn{
		info: ConnInfo{ID: xid.New().String(), Remote: c.RemoteAddr().String(), OpenedAt: time.Now()},
		c:    c,
	}
	s.mu.Lock()
	s.conns[cn.info.ID] = cn
	s.mu.Unlock()
	s.obs.ConnOpened()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.conns, cn.info.ID)
			s.mu.Unlock()
			_ = c.Close()
			s.obs.ConnClosed()
		}()
		s.handle(ctx, cn)
	}()
}

func (s *Server) handle(ctx context.Context, cn *conn) {
	logger := s.logger.With(log.Conn(cn.info.ID), log.Str("remote", cn.info.Remote))
	logger.Info("accepted connection")

	asm := assembler.New(s.dev.AssemblerOptions())
	buf := make([]byte, s.chunk)
	for {
		n, rerr := cn.c.Read(buf)
		if n > 0 {
			err := asm.Feed(buf[:n], func(rec ringlog.Record) error {
				return s.process(ctx, cn.c, rec, logger)
			})
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					logger.Warn("dropping connection", log.Err(err))
				}
				return
			}
		}
		if rerr != nil {
			if asm.Len() > 0 {
				logger.Debug("discarding unterminated bytes", log.Int("pending", asm.Len()))
			}
			if !errors.Is(rerr, io.EOF) && !errors.Is(rerr, net.ErrClosed) {
				logger.Warn("read failed", log.Err(rerr))
			}
			logger.Info("closed connection")
			return
		}
	}
}

// process handles one completed line: a seek command answers with the log
// from the resolved offset, anything else is appended and answered with the
// whole log.
func (s *Server) process(ctx context.Context, w io.Writer, rec ringlog.Record, logger log.Logger) error {
	cmd, isCmd, err := parseSeek(rec.Bytes())
	if isCmd {
		if err != nil {
			logger.Warn("ignoring seek command", log.Err(err), log.Str("line", rec.String()))
			return nil
		}
		abs, data, err := s.dev.SeekContents(ctx, cmd.record, cmd.offset, 0)
		if errors.Is(err, ringlog.ErrInvalidIndex) || errors.Is(err, ringlog.ErrInvalidOffset) {
			logger.Warn("seek out of range", log.Err(err), log.Int("record", cmd.record), log.Int64("offset", cmd.offset))
			return nil
		}
		if err != nil {
			return err
		}
		logger.Debug("seek", log.Int("record", cmd.record), log.Int64("offset", cmd.offset), log.Int64("abs", abs))
		return writeReply(w, data)
	}

	if err := s.dev.Append(ctx, rec); err != nil {
		return err
	}
	logger.Debug("record appended", log.Int("size", rec.Len()))
	data, err := s.dev.Contents(ctx, 0, 0)
	if err != nil {
		return err
	}
	return writeReply(w, data)
}

func writeReply(w io.Writer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}
