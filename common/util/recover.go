package util

import (
	"fmt"
	"runtime/debug"

	"github.com/op/go-logging"
)

// RecoverToLog runs f, logging a panic and its stack instead of letting it
// unwind further. It reports whether f panicked.
func RecoverToLog(f func(), log *logging.Logger) (panicked bool) {
	defer func() {
		if x := recover(); x != nil {
			panicked = true
			if log != nil {
				log.Error(fmt.Sprintf("run time panic: %v", x))
				log.Error(string(debug.Stack()))
			}
		}
	}()
	f()
	return
}
