// Package socket maps logical service names onto a native local transport:
// Unix domain stream sockets, or Windows named pipes.
package socket

import (
	"net"
	"strings"
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/phstream/crow/common/errcode"
	// quiet default backend until the program calls SetupLogging
	_ "github.com/phstream/crow/common/log"
	"github.com/phstream/crow/common/peer"
)

var log = logging.MustGetLogger("socket")

var ErrUnsupported = errors.New("local IPC is not supported on this platform")

// Transport is one family of local IPC endpoints. Resolve must be pure:
// it never touches the filesystem or the pipe namespace.
type Transport interface {
	Resolve(name string) (addr string, err error)
	Listen(addr string) (net.Listener, error)
	Dial(addr string) (net.Conn, error)
	Peer(conn net.Conn, limits peer.Limits) (peer.Identity, error)
}

const (
	opResolve = "resolve"
	opListen  = "listen"
	opDial    = "dial"
)

const DefaultDialTimeout = 2 * time.Second

type options struct {
	dir         string
	dialTimeout time.Duration
}

type Option func(*options)

// WithDir sets the directory holding Unix socket files. Pipe names have no
// directory, so Windows ignores it.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithDialTimeout bounds how long Dial waits. Unix connects never wait for a
// listener; on Windows this is how long to wait for a busy pipe instance.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}

// New returns the transport for the build platform.
func New(opts ...Option) Transport {
	o := options{dialTimeout: DefaultDialTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return newTransport(o)
}

func checkName(name string) error {
	if name == "" {
		return errcode.New(opResolve, "", errcode.Null)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return errcode.Errorf(opResolve, "", errcode.BadValue, "name %q contains a path separator", name)
	}
	return nil
}
