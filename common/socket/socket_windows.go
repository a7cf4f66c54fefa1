//go:build windows

package socket

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/phstream/crow/common/errcode"
	"github.com/phstream/crow/common/peer"
)

const pipePrefix = `\\.\pipe\`

// maxPipeName is the pipe namespace limit, prefix included.
const maxPipeName = 255

type PipeTransport struct {
	DialTimeout time.Duration
	// SecurityDescriptor is an SDDL string for the pipe. Empty grants the
	// default DACL: the creator, SYSTEM and administrators.
	SecurityDescriptor string
}

func NewPipeTransport() *PipeTransport {
	return &PipeTransport{DialTimeout: DefaultDialTimeout}
}

func newTransport(o options) Transport {
	return &PipeTransport{DialTimeout: o.dialTimeout}
}

func (t *PipeTransport) Resolve(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	addr := pipePrefix + name
	if len(addr) > maxPipeName {
		return "", errcode.Errorf(opResolve, "", errcode.NameTooLong,
			"pipe name for %q is %d bytes, limit %d", name, len(addr), maxPipeName)
	}
	return addr, nil
}

func (t *PipeTransport) Listen(addr string) (net.Listener, error) {
	l, err := winio.ListenPipe(addr, &winio.PipeConfig{
		SecurityDescriptor: t.SecurityDescriptor,
		InputBufferSize:    65536,
		OutputBufferSize:   65536,
	})
	if err != nil {
		return nil, errcode.Wrap(opListen, addr, err)
	}
	return &pipeListener{Listener: l}, nil
}

// Dial connects at SecurityIdentification so the server can read the
// client's token. winio.DialPipe dials anonymously, which would make every
// Peer call fail.
func (t *PipeTransport) Dial(addr string) (net.Conn, error) {
	timeout := t.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := winio.DialPipeAccessImpLevel(ctx, addr,
		windows.GENERIC_READ|windows.GENERIC_WRITE, winio.PipeImpLevelIdentification)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, winio.ErrTimeout) {
			return nil, errcode.Errorf(opDial, addr, errcode.Again, "all pipe instances busy for %v", timeout)
		}
		return nil, errcode.Wrap(opDial, addr, err)
	}
	return &pipeConn{Conn: conn}, nil
}

func (t *PipeTransport) Peer(conn net.Conn, limits peer.Limits) (peer.Identity, error) {
	if pc, ok := conn.(*pipeConn); ok {
		conn = pc.Conn
	}
	return peer.Inspect(conn, limits)
}

type pipeListener struct {
	net.Listener
}

func (l *pipeListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		if errors.Is(err, winio.ErrPipeListenerClosed) {
			return nil, net.ErrClosed
		}
		return nil, err
	}
	return &pipeConn{Conn: conn}, nil
}

// pipeConn reports a peer that went away as io.EOF, the way a Unix socket
// read does.
type pipeConn struct {
	net.Conn
}

func (c *pipeConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if err != nil && n == 0 && isDisconnect(err) {
		return 0, io.EOF
	}
	return n, err
}

func isDisconnect(err error) bool {
	return errors.Is(err, windows.ERROR_BROKEN_PIPE) ||
		errors.Is(err, windows.ERROR_PIPE_NOT_CONNECTED) ||
		errors.Is(err, windows.ERROR_NO_DATA)
}
