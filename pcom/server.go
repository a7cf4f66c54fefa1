package pcom

import (
	"net"

	"github.com/phstream/crow/common/errcode"
	"github.com/phstream/crow/common/peer"
	"github.com/phstream/crow/common/socket"
)

// Server is a listening endpoint. Each Server owns its address and
// listener, so a process may run any number of them.
type Server struct {
	name      string
	addr      string
	listener  net.Listener
	transport socket.Transport
	limits    peer.Limits
}

// OpenServer resolves name and starts listening on it. A stale socket file
// left at the address is removed first.
func OpenServer(name string, opts ...Option) (*Server, error) {
	cfg := newConfig(opts)
	addr, err := cfg.transport.Resolve(name)
	if err != nil {
		return nil, errcode.Wrap(opServerOpen, "", err)
	}
	listener, err := cfg.transport.Listen(addr)
	if err != nil {
		return nil, errcode.Wrap(opServerOpen, addr, err)
	}
	log.Debugf("server %s listening on %s", name, addr)
	return &Server{
		name:      name,
		addr:      addr,
		listener:  listener,
		transport: cfg.transport,
		limits:    cfg.limits,
	}, nil
}

// Accept blocks until one client connects. Closing the server from another
// goroutine makes a pending Accept fail.
func (s *Server) Accept() (*Conn, error) {
	c, err := s.listener.Accept()
	if err != nil {
		return nil, errcode.Wrap(opAccept, s.addr, err)
	}
	conn := newConn(c, s.addr, s.transport, s.limits)
	log.Debugf("server %s accepted conn %s", s.name, conn.ID())
	return conn, nil
}

// Close stops listening. Connections already accepted stay open.
func (s *Server) Close() error {
	log.Debugf("server %s closing", s.name)
	return errcode.Wrap(opServerClose, s.addr, s.listener.Close())
}

func (s *Server) Name() string {
	return s.name
}

// Addr is the resolved socket path or pipe name.
func (s *Server) Addr() string {
	return s.addr
}
