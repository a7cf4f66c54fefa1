//go:build linux || darwin

package peer

import (
	"net"
	"os/user"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/phstream/crow/common/errcode"
)

// cred is what the kernel reports for the peer of a Unix socket.
type cred struct {
	uid uint32
	gid uint32
	pid int
}

// groupNames caches gid -> group name. Group databases may sit behind NSS
// (LDAP, sssd) where every lookup is a round trip.
var groupNames, _ = lru.New(256)

func lookupGroupName(gid string) (string, error) {
	if name, ok := groupNames.Get(gid); ok {
		return name.(string), nil
	}
	grp, err := user.LookupGroupId(gid)
	if err != nil {
		return "", err
	}
	groupNames.Add(gid, grp.Name)
	return grp.Name, nil
}

type accountSource struct {
	lookupUser  func(uid string) (*user.User, error)
	groupIds    func(u *user.User) ([]string, error)
	lookupGroup func(gid string) (string, error)
}

var systemAccounts = accountSource{
	lookupUser:  user.LookupId,
	groupIds:    (*user.User).GroupIds,
	lookupGroup: lookupGroupName,
}

func inspect(conn net.Conn, limits Limits) (Identity, error) {
	c, err := peerCred(conn)
	if err != nil {
		return Identity{}, err
	}
	return systemAccounts.identity(c, limits)
}

func (src accountSource) identity(c cred, limits Limits) (Identity, error) {
	uid := strconv.FormatUint(uint64(c.uid), 10)
	u, err := src.lookupUser(uid)
	if err != nil {
		var unknown user.UnknownUserIdError
		if errors.As(err, &unknown) {
			return Identity{}, errcode.Errorf(opInspect, "", errcode.NotExist, "no user with uid %s", uid)
		}
		return Identity{}, errcode.Wrap(opInspect, "", err)
	}

	ids, err := src.groupIds(u)
	if err != nil {
		return Identity{}, errcode.Wrap(opInspect, "", err)
	}
	// the credential gid leads, as getgrouplist(3) does with its group argument
	gids := []string{strconv.FormatUint(uint64(c.gid), 10)}
	for _, id := range ids {
		if id != gids[0] {
			gids = append(gids, id)
		}
	}

	groups := newGroupList(limits)
	if err := groups.checkCount(len(gids)); err != nil {
		return Identity{}, err
	}
	for _, gid := range gids {
		name, err := src.lookupGroup(gid)
		if err != nil {
			log.Debugf("skipping unresolvable gid %s: %v", gid, err)
			continue
		}
		if err := groups.add(name); err != nil {
			return Identity{}, err
		}
	}

	return Identity{
		User:   truncateName(u.Username, limits),
		Admin:  c.uid == 0,
		Groups: groups.names,
		UID:    uid,
		PID:    c.pid,
	}, nil
}
