//go:build !unix && !windows

package socket

import (
	"net"

	"github.com/phstream/crow/common/errcode"
	"github.com/phstream/crow/common/peer"
)

type unsupportedTransport struct{}

func newTransport(options) Transport {
	return unsupportedTransport{}
}

func unsupported(op string) error {
	return &errcode.Error{Op: op, Code: errcode.Failed, Err: ErrUnsupported}
}

func (unsupportedTransport) Resolve(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return "", unsupported(opResolve)
}

func (unsupportedTransport) Listen(addr string) (net.Listener, error) {
	return nil, unsupported(opListen)
}

func (unsupportedTransport) Dial(addr string) (net.Conn, error) {
	return nil, unsupported(opDial)
}

func (unsupportedTransport) Peer(conn net.Conn, limits peer.Limits) (peer.Identity, error) {
	return peer.Identity{}, unsupported("check user")
}
