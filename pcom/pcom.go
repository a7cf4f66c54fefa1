// Package pcom connects one client to one server over the host's native
// local IPC transport and reports who the peer is, as asserted by the
// operating system.
//
// Every failure is an *errcode.Error; errcode.Of turns it into the signed
// integer code shared by all operations.
package pcom

import (
	"github.com/op/go-logging"

	"github.com/phstream/crow/common/errcode"
	// quiet default backend until the program calls SetupLogging
	_ "github.com/phstream/crow/common/log"
	"github.com/phstream/crow/common/peer"
	"github.com/phstream/crow/common/socket"
	"github.com/phstream/crow/common/version"
)

var log = logging.MustGetLogger("pcom")

const (
	opServerOpen  = "server open"
	opAccept      = "server accept"
	opServerClose = "server close"
	opClientOpen  = "client open"
	opClose       = "close"
	opSend        = "send"
	opRecv        = "recv"
	opCheckUser   = "check user"
)

// Version returns the library version as MAJOR<<16 | MINOR<<8 | PATCH.
func Version() int {
	return version.Packed(version.CURRENT_VERSION)
}

// ErrorText describes an error code for diagnostics.
func ErrorText(code int) string {
	return errcode.Code(code).Text()
}

type config struct {
	transport socket.Transport
	limits    peer.Limits
}

type Option func(*config)

// WithTransport replaces the platform transport, e.g. with a
// socket.NewUnixTransport rooted in another directory.
func WithTransport(t socket.Transport) Option {
	return func(c *config) {
		c.transport = t
	}
}

// WithLimits bounds the identity CheckUser may return. Zero fields keep
// their defaults.
func WithLimits(l peer.Limits) Option {
	return func(c *config) {
		c.limits = l
	}
}

func newConfig(opts []Option) config {
	c := config{limits: peer.DefaultLimits}
	for _, opt := range opts {
		opt(&c)
	}
	if c.transport == nil {
		c.transport = socket.New()
	}
	return c
}
