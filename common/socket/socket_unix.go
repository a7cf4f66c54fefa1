//go:build unix

package socket

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/phstream/crow/common/errcode"
	"github.com/phstream/crow/common/peer"
)

const DefaultDir = "/var/tmp"

// sun_path holds 108 bytes including the terminator, and the resolved path
// must stay strictly below 107.
const maxUnixPath = 106

type UnixTransport struct {
	Dir         string
	DialTimeout time.Duration
}

func NewUnixTransport(dir string) *UnixTransport {
	return &UnixTransport{Dir: dir, DialTimeout: DefaultDialTimeout}
}

func newTransport(o options) Transport {
	return &UnixTransport{Dir: o.dir, DialTimeout: o.dialTimeout}
}

func (t *UnixTransport) Resolve(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	dir := t.Dir
	if dir == "" {
		dir = DefaultDir
	}
	addr := fmt.Sprintf("%s/%s.sock", strings.TrimRight(dir, "/"), name)
	if len(addr) > maxUnixPath {
		return "", errcode.Errorf(opResolve, "", errcode.NameTooLong,
			"socket path for %q is %d bytes, limit %d", name, len(addr), maxUnixPath)
	}
	return addr, nil
}

func (t *UnixTransport) Listen(addr string) (net.Listener, error) {
	//	delete UNIX socket in case a previous server was not closed cleanly
	if err := os.Remove(addr); err == nil {
		log.Debugf("removed stale socket %s", addr)
	}
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: addr, Net: "unix"})
	if err != nil {
		return nil, errcode.Wrap(opListen, addr, err)
	}
	// Close unlinks the socket file
	l.SetUnlinkOnClose(true)
	return l, nil
}

func (t *UnixTransport) Dial(addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: t.DialTimeout}
	conn, err := d.Dial("unix", addr)
	if err != nil {
		return nil, errcode.Wrap(opDial, addr, err)
	}
	return conn, nil
}

func (t *UnixTransport) Peer(conn net.Conn, limits peer.Limits) (peer.Identity, error) {
	return peer.Inspect(conn, limits)
}
