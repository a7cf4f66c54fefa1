//go:build unix

package errcode

import "golang.org/x/sys/unix"

var errClosed = unix.EBADF

// NameTooLong is returned when a resolved address does not fit sun_path.
var NameTooLong = FromErrno(unix.ENAMETOOLONG)
