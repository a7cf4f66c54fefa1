//go:build !linux && !darwin && !windows

package peer

import (
	"net"
	"runtime"

	"github.com/phstream/crow/common/errcode"
)

func inspect(conn net.Conn, limits Limits) (Identity, error) {
	return Identity{}, errcode.Errorf(opInspect, "", errcode.Failed,
		"peer credentials are not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
