//go:build darwin

package peer

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/phstream/crow/common/errcode"
)

// peerCred reads LOCAL_PEERCRED. The xucred group array is capped at 16
// entries by the kernel, so only its first (effective) gid is used and the
// full membership comes from the group database.
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
		xucred  *unix.Xucred
		pid     int
		credErr error
	)
	controlErr := rawConn.Control(func(fd uintptr) {
		xucred, credErr = unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
		if credErr == nil {
			// best effort, older kernels lack LOCAL_PEERPID
			pid, _ = unix.GetsockoptInt(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERPID)
		}
	})
	if controlErr != nil {
		return cred{}, errcode.Wrap(opInspect, "", controlErr)
	}
	if credErr != nil {
		return cred{}, errcode.Wrap(opInspect, "", credErr)
	}
	c := cred{uid: xucred.Uid, pid: pid}
	if xucred.Ngroups > 0 {
		c.gid = xucred.Groups[0]
	}
	return c, nil
}
