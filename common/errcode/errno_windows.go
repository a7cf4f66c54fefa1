//go:build windows

package errcode

import "golang.org/x/sys/windows"

var errClosed = windows.ERROR_INVALID_HANDLE

// NameTooLong is returned when a resolved pipe name exceeds the pipe
// namespace limit.
var NameTooLong = FromErrno(windows.ERROR_FILENAME_EXCED_RANGE)
