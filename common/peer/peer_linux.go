//go:build linux

package peer

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/phstream/crow/common/errcode"
)

// peerCred reads SO_PEERCRED. The kernel records the credentials at
// connect(2) time, so the peer cannot forge them.
func peerCred(conn net.Conn) (cred, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return cred{}, errcode.Errorf(opInspect, "", errcode.BadValue, "connection is not a Unix socket connection")
	}
	rawConn, err := unixConn.SyscallConn()
	if err != nil {
		return cred{}, errcode.Wrap(opInspect, "", err)
	}

	var (
		ucred   *unix.Ucred
		credErr error
	)
	controlErr := rawConn.Control(func(fd uintptr) {
		ucred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if controlErr != nil {
		return cred{}, errcode.Wrap(opInspect, "", controlErr)
	}
	if credErr != nil {
		return cred{}, errcode.Wrap(opInspect, "", credErr)
	}
	return cred{uid: ucred.Uid, gid: ucred.Gid, pid: int(ucred.Pid)}, nil
}
