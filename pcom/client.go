package pcom

import (
	"github.com/phstream/crow/common/errcode"
)

// OpenClient connects to the server listening on name. It fails at once
// when nobody listens; there is no retry.
func OpenClient(name string, opts ...Option) (*Conn, error) {
	cfg := newConfig(opts)
	addr, err := cfg.transport.Resolve(name)
	if err != nil {
		return nil, errcode.Wrap(opClientOpen, "", err)
	}
	c, err := cfg.transport.Dial(addr)
	if err != nil {
		return nil, errcode.Wrap(opClientOpen, addr, err)
	}
	conn := newConn(c, addr, cfg.transport, cfg.limits)
	log.Debugf("client conn %s connected to %s", conn.ID(), addr)
	return conn, nil
}
