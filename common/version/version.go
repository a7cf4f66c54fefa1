package version

import (
	"fmt"

	"github.com/blang/semver"
)

var CURRENT_VERSION = semver.MustParse("1.0.0")

// Packed folds v into MAJOR<<16 | MINOR<<8 | PATCH, the integer form exposed
// to callers that cannot handle a semver string.
func Packed(v semver.Version) int {
	return int(v.Major&0xff)<<16 | int(v.Minor&0xff)<<8 | int(v.Patch&0xff)
}

// Unpack is the inverse of Packed.
func Unpack(packed int) semver.Version {
	return semver.Version{
		Major: uint64(packed>>16) & 0xff,
		Minor: uint64(packed>>8) & 0xff,
		Patch: uint64(packed) & 0xff,
	}
}

// Compatible reports whether a library reporting packed can serve a caller
// built against CURRENT_VERSION: same major, not older.
func Compatible(packed int) error {
	v := Unpack(packed)
	if v.Major != CURRENT_VERSION.Major || v.LT(CURRENT_VERSION) {
		return fmt.Errorf("wrong pcom version %s, %s expected", v, CURRENT_VERSION)
	}
	return nil
}
