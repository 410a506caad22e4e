// Package listener receives log records from local writers on the logdw
// datagram socket. Every record is authenticated by the credentials the
// kernel attaches to the datagram; payload fields never override them.
//
// Rejected datagrams are dropped without any response to the writer. The
// only trace of a drop is a counter in the optional diagnostics.
package listener

import (
	"context"
	"errors"
	"log"
	"net"
	"runtime"
	"sync/atomic"

	"github.com/emresahna/logd/internal/diagnostics"
	"github.com/emresahna/logd/internal/model"
	"github.com/emresahna/logd/internal/policy"
	"golang.org/x/sys/unix"
)

// ErrNoSocket is returned by Run when the socket could not be acquired.
var ErrNoSocket = errors.New("listener: no socket")

// Sink accepts admitted records. Record.Payload aliases the receive buffer
// and must be copied if retained past the call. Implementations must be
// safe for concurrent use with other log sources.
type Sink interface {
	Ingest(rec model.Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec model.Record) error

func (f SinkFunc) Ingest(rec model.Record) error {
	return f(rec)
}

// DatagramConn is the receive side of the socket. *net.UnixConn satisfies it.
type DatagramConn interface {
	ReadMsgUnix(b, oob []byte) (n, oobn, flags int, addr *net.UnixAddr, err error)
	Close() error
}

type Listener struct {
	conn    DatagramConn
	fd      atomic.Int64
	err     error
	sink    Sink
	policy  policy.SecurityPolicy
	selfUID uint32
	diag    *diagnostics.Diagnostics

	socketDir  string
	socketName string
}

type Option func(*Listener)

// WithPolicy sets the security-channel policy. The default denies all
// security records.
func WithPolicy(p policy.SecurityPolicy) Option {
	return func(l *Listener) { l.policy = p }
}

// WithSelfUID sets the uid whose records are suppressed. Defaults to AID_LOGD.
func WithSelfUID(uid uint32) Option {
	return func(l *Listener) { l.selfUID = uid }
}

func WithSocketDir(dir string) Option {
	return func(l *Listener) { l.socketDir = dir }
}

func WithSocketName(name string) Option {
	return func(l *Listener) { l.socketName = name }
}

func WithDiagnostics(d *diagnostics.Diagnostics) Option {
	return func(l *Listener) { l.diag = d }
}

// WithConn skips socket acquisition and reads from conn instead.
func WithConn(conn DatagramConn) Option {
	return func(l *Listener) { l.conn = conn }
}

// New creates a listener feeding sink and acquires its socket. Acquisition
// failure is not returned here; Start reports it and Err explains it.
func New(sink Sink, opts ...Option) *Listener {
	l := &Listener{
		sink:       sink,
		policy:     policy.Deny,
		selfUID:    model.AIDLogd,
		socketDir:  DefaultSocketDir,
		socketName: DefaultSocketName,
	}
	l.fd.Store(-1)
	for _, opt := range opts {
		opt(l)
	}

	if l.conn == nil {
		conn, err := acquireSocket(l.socketDir, l.socketName)
		if err != nil {
			l.err = err
			return l
		}
		l.conn = conn
	}
	l.fd.Store(int64(socketFD(l.conn)))
	return l
}

// Start runs the receive loop on its own goroutine. It returns false when
// the socket is unusable; the listener must then be discarded. Call once.
func (l *Listener) Start() bool {
	if l.conn == nil {
		return false
	}
	go func() {
		if err := l.Run(context.Background()); err != nil {
			log.Printf("listener stopped: %v", err)
		}
	}()
	return true
}

// Socket returns the descriptor the listener reads from, or -1 when there is
// no socket or it has been closed. An inherited socket is duplicated on
// adoption, so this is not the descriptor number named in the environment.
func (l *Listener) Socket() int {
	return int(l.fd.Load())
}

// Err reports why socket acquisition failed.
func (l *Listener) Err() error {
	return l.err
}

// Close closes the socket, which ends a running receive loop.
func (l *Listener) Close() error {
	if l.conn == nil {
		return nil
	}
	l.fd.Store(-1)
	return l.conn.Close()
}

// Run receives datagrams until ctx is done or the socket is closed.
func (l *Listener) Run(ctx context.Context) error {
	if l.conn == nil {
		return ErrNoSocket
	}

	// The thread is never unlocked, so it exits with this goroutine and the
	// name below never leaks to other goroutines.
	runtime.LockOSThread()
	setThreadName("logd.writer")

	stop := context.AfterFunc(ctx, func() {
		_ = l.Close()
	})
	defer stop()

	// One extra byte so a maximum-size payload can still be terminated.
	buf := make([]byte, model.HeaderSize+model.MaxPayload+1)
	oob := make([]byte, unix.CmsgSpace(unix.SizeofUcred))

	for {
		n, oobn, flags, _, err := l.conn.ReadMsgUnix(buf[:len(buf)-1], oob)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.diag.IncReceiveErrors()
			continue
		}
		l.handle(buf, n, oob[:oobn], flags)
	}
}

func (l *Listener) handle(buf []byte, n int, oob []byte, flags int) {
	l.diag.IncDatagramsRead()

	if n <= model.HeaderSize {
		l.diag.IncShortDrops()
		return
	}
	buf[n] = 0

	cred, ok := peerCredentials(oob)
	if !ok {
		l.diag.IncNoCredentialDrops()
		return
	}

	// Libraries linked into the daemon log through the same socket.
	if cred.Uid == l.selfUID {
		l.diag.IncSelfDrops()
		return
	}

	header := model.DecodeHeader(buf)
	if !header.ID.Valid() || header.ID == model.LogIDKernel {
		l.diag.IncInvalidIDDrops()
		return
	}

	if header.ID == model.LogIDSecurity &&
		(!l.policy.Enabled() || !l.policy.PeerAuthorized(cred.Uid, cred.Gid, uint32(cred.Pid))) {
		l.diag.IncSecurityDrops()
		return
	}

	// Truncated datagrams are delivered as received.
	if flags&unix.MSG_TRUNC != 0 {
		l.diag.IncTruncated()
	}

	size := n - model.HeaderSize
	if size > model.MaxDeliveredPayload {
		size = model.MaxDeliveredPayload
	}

	err := l.sink.Ingest(model.Record{
		ID:       header.ID,
		Realtime: header.Realtime,
		UID:      cred.Uid,
		PID:      uint32(cred.Pid),
		TID:      header.TID,
		Payload:  buf[model.HeaderSize : model.HeaderSize+size],
	})
	if err != nil {
		l.diag.IncSinkFailures()
		return
	}
	l.diag.IncDispatched()
}
