//go:build windows

package peer

import (
	"fmt"
	"net"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/phstream/crow/common/errcode"
)

var (
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procImpersonateNamedPipeClient  = modadvapi32.NewProc("ImpersonateNamedPipeClient")
	procGetNamedPipeClientProcessId = modkernel32.NewProc("GetNamedPipeClientProcessId")
)

func impersonateNamedPipeClient(pipe windows.Handle) error {
	r1, _, err := procImpersonateNamedPipeClient.Call(uintptr(pipe))
	if r1 == 0 {
		return err
	}
	return nil
}

func namedPipeClientProcessID(pipe windows.Handle) int {
	var pid uint32
	r1, _, _ := procGetNamedPipeClientProcessId.Call(uintptr(pipe), uintptr(unsafe.Pointer(&pid)))
	if r1 == 0 {
		return 0
	}
	return int(pid)
}

type handleConn interface {
	Fd() uintptr
}

func inspect(conn net.Conn, limits Limits) (Identity, error) {
	hc, ok := conn.(handleConn)
	if !ok {
		return Identity{}, errcode.Errorf(opInspect, "", errcode.BadValue, "connection is not a named pipe")
	}
	pipe := windows.Handle(hc.Fd())

	token, err := clientToken(pipe)
	if err != nil {
		return Identity{}, err
	}
	defer token.Close()

	id, err := identityFromToken(token, limits)
	if err != nil {
		return Identity{}, err
	}
	id.PID = namedPipeClientProcessID(pipe)
	return id, nil
}

var revertToSelf = windows.RevertToSelf

// clientToken impersonates the pipe client on a locked OS thread just long
// enough to open the thread token. The client must have dialed with at least
// SecurityIdentification.
//
// If RevertToSelf fails the thread would keep running caller code as the
// client, so clientToken panics and leaves the thread locked. The runtime
// then terminates that thread when the goroutine exits, even when a caller
// recovers the panic.
func clientToken(pipe windows.Handle) (windows.Token, error) {
	runtime.LockOSThread()
	if err := impersonateNamedPipeClient(pipe); err != nil {
		runtime.UnlockOSThread()
		return 0, errcode.Wrap(opInspect, "", err)
	}
	var token windows.Token
	openErr := windows.OpenThreadToken(windows.CurrentThread(), windows.TOKEN_QUERY, true, &token)
	if err := revertToSelf(); err != nil {
		if openErr == nil {
			token.Close()
		}
		panic(fmt.Sprintf("peer: RevertToSelf failed while impersonating a pipe client: %v", err))
	}
	runtime.UnlockOSThread()
	if openErr != nil {
		return 0, errcode.Wrap(opInspect, "", openErr)
	}
	return token, nil
}

func identityFromToken(token windows.Token, limits Limits) (Identity, error) {
	tokenUser, err := token.GetTokenUser()
	if err != nil {
		return Identity{}, errcode.Wrap(opInspect, "", err)
	}
	account, _, _, err := tokenUser.User.Sid.LookupAccount("")
	if err != nil {
		return Identity{}, errcode.Wrap(opInspect, "", err)
	}

	admins, err := windows.CreateWellKnownSid(windows.WinBuiltinAdministratorsSid)
	if err != nil {
		return Identity{}, errcode.Wrap(opInspect, "", err)
	}
	tokenGroups, err := token.GetTokenGroups()
	if err != nil {
		return Identity{}, errcode.Wrap(opInspect, "", err)
	}

	admin := false
	groups := newGroupList(limits)
	for _, g := range tokenGroups.AllGroups() {
		// deny-only entries do not grant membership
		if g.Attributes&windows.SE_GROUP_USE_FOR_DENY_ONLY != 0 {
			continue
		}
		if g.Sid.Equals(admins) {
			admin = true
		}
		name, _, kind, err := g.Sid.LookupAccount("")
		if err != nil {
			// logon session SIDs have no account name
			log.Debugf("skipping unresolvable SID %s: %v", g.Sid.String(), err)
			continue
		}
		switch kind {
		case windows.SidTypeGroup, windows.SidTypeAlias, windows.SidTypeWellKnownGroup:
		default:
			continue
		}
		if err := groups.add(name); err != nil {
			return Identity{}, err
		}
	}

	return Identity{
		User:   truncateName(account, limits),
		Admin:  admin,
		Groups: groups.names,
		UID:    tokenUser.User.Sid.String(),
	}, nil
}
