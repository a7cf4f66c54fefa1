package pcom

import (
	"io"
	"net"

	uuid "github.com/satori/go.uuid"

	"github.com/phstream/crow/common/errcode"
	"github.com/phstream/crow/common/peer"
	"github.com/phstream/crow/common/socket"
)

// Conn is one end of an established channel, the same type for both roles.
// Bytes are passed through unframed.
type Conn struct {
	id        uuid.UUID
	conn      net.Conn
	addr      string
	transport socket.Transport
	limits    peer.Limits
}

var _ io.ReadWriteCloser = (*Conn)(nil)

func newConn(c net.Conn, addr string, transport socket.Transport, limits peer.Limits) *Conn {
	return &Conn{
		id:        uuid.NewV4(),
		conn:      c,
		addr:      addr,
		transport: transport,
		limits:    limits,
	}
}

// ID identifies the connection in log output only.
func (c *Conn) ID() string {
	return c.id.String()
}

// Send blocks until b is written or the write fails, and returns the number
// of bytes the OS accepted.
func (c *Conn) Send(b []byte) (int, error) {
	n, err := c.conn.Write(b)
	if err != nil {
		log.Debugf("conn %s send failed after %d bytes: %v", c.ID(), n, err)
		return n, errcode.Wrap(opSend, c.addr, err)
	}
	return n, nil
}

// Recv blocks until at least one byte arrives. It returns 0, io.EOF once
// the peer has closed its end.
func (c *Conn) Recv(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, errcode.New(opRecv, c.addr, errcode.BadSize)
	}
	n, err := c.conn.Read(b)
	if err == io.EOF {
		log.Debugf("conn %s: peer closed", c.ID())
		return n, io.EOF
	}
	if err != nil {
		return n, errcode.Wrap(opRecv, c.addr, err)
	}
	return n, nil
}

func (c *Conn) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	return c.Recv(b)
}

func (c *Conn) Write(b []byte) (int, error) {
	return c.Send(b)
}

// CheckUser asks the OS who is on the other end. The result is built fresh
// on every call.
func (c *Conn) CheckUser() (peer.Identity, error) {
	id, err := c.transport.Peer(c.conn, c.limits)
	if err != nil {
		return peer.Identity{}, errcode.Wrap(opCheckUser, c.addr, err)
	}
	return id, nil
}

func (c *Conn) Close() error {
	log.Debugf("conn %s closing", c.ID())
	return errcode.Wrap(opClose, c.addr, c.conn.Close())
}
