// Package errcode is the unified signed-integer error domain shared by every
// pcom operation.
//
// Non-negative codes mean success (and may carry a byte count). A small
// negative range holds the locally defined kinds below. Platform error numbers
// (errno on Unix, GetLastError values on Windows) are carried in a second
// range as -(errno + ErrnoOffset), so both vocabularies fit in one int and
// can be told apart by comparing against -ErrnoOffset.
package errcode

import (
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

type Code int

const (
	OK         Code = 0
	Failed     Code = -1
	Null       Code = -2
	BadValue   Code = -3
	EOF        Code = -4
	BufferFull Code = -5
	Format     Code = -6
	Exist      Code = -7
	NotExist   Code = -8
	BadSize    Code = -9
	TooBig     Code = -10
	Again      Code = -11
	TooSmall   Code = -12
)

// ErrnoOffset separates local kinds from encoded platform error numbers.
const ErrnoOffset = 1000

var localText = map[Code]string{
	Failed:     "Error Occurred",
	Null:       "NULL Pointer Error",
	BadValue:   "Bad Value",
	EOF:        "End of File",
	BufferFull: "Buffer Full",
	Format:     "Format Error",
	Exist:      "File Exist",
	NotExist:   "File Not Exist",
	BadSize:    "Bad Size",
	TooBig:     "Too Big",
	Again:      "Try Again",
	TooSmall:   "Too Small",
}

// FromErrno encodes a platform error number. A zero errno carries no
// information and becomes Failed.
func FromErrno(errno syscall.Errno) Code {
	if errno == 0 {
		return Failed
	}
	return Code(-(int(errno) + ErrnoOffset))
}

// Errno decodes a platform error number, ok is false for local kinds.
func (c Code) Errno() (errno syscall.Errno, ok bool) {
	if c > -ErrnoOffset {
		return 0, false
	}
	return syscall.Errno(-int(c) - ErrnoOffset), true
}

func (c Code) IsOS() bool {
	return c <= -ErrnoOffset
}

// Text describes the code. It is meant for diagnostics only.
func (c Code) Text() string {
	if c >= 0 {
		return "No Error"
	}
	if errno, ok := c.Errno(); ok {
		return errno.Error()
	}
	if text, ok := localText[c]; ok {
		return text
	}
	return "Undefined Error"
}

func (c Code) Error() string {
	return c.Text()
}

// Is lets errors.Is(err, io.EOF) hold for an EOF code, and matches encoded
// errnos against the bare syscall.Errno.
func (c Code) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return c == t
	case syscall.Errno:
		errno, ok := c.Errno()
		return ok && errno == t
	}
	return c == EOF && target == io.EOF
}

// Error is what every pcom operation returns on failure.
type Error struct {
	Op   string
	Addr string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	s := e.Op
	if e.Addr != "" {
		s += " " + e.Addr
	}
	s += ": " + e.Code.Text()
	if e.Err != nil && !e.Code.IsOS() && e.Err != error(e.Code) {
		s += " (" + e.Err.Error() + ")"
	}
	return s
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Code
}

// New returns an *Error carrying a local kind without a further cause.
func New(op, addr string, code Code) error {
	return &Error{Op: op, Addr: addr, Code: code}
}

// Wrap classifies err and attaches the operation that produced it. An empty
// addr keeps the address of an inner *Error. A nil err stays nil.
func Wrap(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if addr == "" {
			addr = e.Addr
		}
		return &Error{Op: op, Addr: addr, Code: e.Code, Err: e.Err}
	}
	return &Error{Op: op, Addr: addr, Code: Of(err), Err: err}
}

// Errorf wraps a formatted cause with a local kind.
func Errorf(op, addr string, code Code, format string, args ...interface{}) error {
	return &Error{Op: op, Addr: addr, Code: code, Err: fmt.Errorf(format, args...)}
}

// Of maps any error onto the unified code space.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	if err == io.EOF {
		return EOF
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return FromErrno(errno)
	}
	switch {
	case errors.Is(err, net.ErrClosed), errors.Is(err, os.ErrClosed):
		return FromErrno(errClosed)
	case errors.Is(err, os.ErrDeadlineExceeded):
		return Again
	case errors.Is(err, fs.ErrNotExist):
		return NotExist
	case errors.Is(err, fs.ErrExist):
		return Exist
	case errors.Is(err, io.ErrShortBuffer):
		return TooSmall
	}
	return Failed
}
