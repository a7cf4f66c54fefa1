// Package peer reads the identity of the process on the other end of a local
// IPC connection from the operating system.
//
// The identity always comes from kernel-asserted credentials (SO_PEERCRED,
// LOCAL_PEERCRED, or named-pipe client impersonation), never from bytes the
// peer sent over the channel.
package peer

import (
	"net"
	"unicode/utf8"

	"github.com/op/go-logging"

	"github.com/phstream/crow/common/errcode"
	// quiet default backend until the program calls SetupLogging
	_ "github.com/phstream/crow/common/log"
)

var log = logging.MustGetLogger("peer")

// Identity is built fresh for every inspection; do not keep it across
// reconnects.
type Identity struct {
	User   string
	Admin  bool
	Groups []string

	// UID is the numeric user id on Unix and the SID string on Windows.
	UID string
	// PID is 0 when the platform does not report it.
	PID int
}

// InGroup reports whether name is one of the peer's groups.
func (id Identity) InGroup(name string) bool {
	for _, g := range id.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares nothing with id.
func (id Identity) Clone() Identity {
	c := id
	c.Groups = append([]string(nil), id.Groups...)
	return c
}

type Limits struct {
	// MaxUserNameLen bounds the user name including its terminator, so at
	// most MaxUserNameLen-1 bytes are kept.
	MaxUserNameLen int
	// MaxGroups bounds the number of groups.
	MaxGroups int
	// MaxGroupNameBytes bounds the sum of len(name)+1 over all groups. The
	// sum must stay strictly below it, so 1024 admits at most 1023 bytes.
	MaxGroupNameBytes int
}

var DefaultLimits = Limits{
	MaxUserNameLen:    256,
	MaxGroups:         32,
	MaxGroupNameBytes: 1024,
}

func (l Limits) orDefault() Limits {
	if l.MaxUserNameLen <= 0 {
		l.MaxUserNameLen = DefaultLimits.MaxUserNameLen
	}
	if l.MaxGroups <= 0 {
		l.MaxGroups = DefaultLimits.MaxGroups
	}
	if l.MaxGroupNameBytes <= 0 {
		l.MaxGroupNameBytes = DefaultLimits.MaxGroupNameBytes
	}
	return l
}

const opInspect = "check user"

// Inspect queries the OS for the identity of conn's peer. conn must be a
// connection produced by this module's transports: a *net.UnixConn on Unix
// or a go-winio pipe connection on Windows.
func Inspect(conn net.Conn, limits Limits) (Identity, error) {
	if conn == nil {
		return Identity{}, errcode.New(opInspect, "", errcode.Null)
	}
	limits = limits.orDefault()
	id, err := inspect(conn, limits)
	if err != nil {
		log.Debugf("peer inspection failed: %v", err)
		return Identity{}, err
	}
	log.Debugf("peer user=%s uid=%s pid=%d admin=%v groups=%d", id.User, id.UID, id.PID, id.Admin, len(id.Groups))
	return id, nil
}

// groupList accumulates group names under the configured bounds. A list that
// would overflow is rejected as a whole.
type groupList struct {
	limits Limits
	used   int
	names  []string
}

func newGroupList(limits Limits) *groupList {
	return &groupList{limits: limits}
}

func (g *groupList) add(name string) error {
	need := len(name) + 1
	if len(g.names) >= g.limits.MaxGroups {
		return errcode.Errorf(opInspect, "", errcode.BufferFull,
			"more than %d groups", g.limits.MaxGroups)
	}
	if g.used+need >= g.limits.MaxGroupNameBytes {
		return errcode.Errorf(opInspect, "", errcode.BufferFull,
			"group names exceed %d bytes", g.limits.MaxGroupNameBytes)
	}
	g.names = append(g.names, name)
	g.used += need
	return nil
}

// checkCount fails early when the OS already reports more ids than fit.
func (g *groupList) checkCount(n int) error {
	if n > g.limits.MaxGroups {
		return errcode.Errorf(opInspect, "", errcode.BufferFull,
			"peer has %d groups, at most %d supported", n, g.limits.MaxGroups)
	}
	return nil
}

func truncateName(name string, limits Limits) string {
	max := limits.MaxUserNameLen - 1
	if len(name) <= max {
		return name
	}
	name = name[:max]
	// drop a rune cut in half by the bound
	for i := 0; i < utf8.UTFMax-1 && len(name) > 0; i++ {
		if r, size := utf8.DecodeLastRuneInString(name); r != utf8.RuneError || size != 1 {
			break
		}
		name = name[:len(name)-1]
	}
	return name
}
