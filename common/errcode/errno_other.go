//go:build js || wasip1

package errcode

import "syscall"

var errClosed = syscall.EBADF

var NameTooLong = TooBig
