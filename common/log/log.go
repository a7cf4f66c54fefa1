package log

import (
	"os"

	"github.com/op/go-logging"
)

var Log = logging.MustGetLogger("")

var syslogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{module} %{level:.6s} ▶ %{message}`,
)
var stderrFormat = logging.MustStringFormatter(
	`%{color}crow ▶ %{module} %{message}%{color:reset}`,
)

// LevelFromEnv reads CROW_LOG_LEVEL, falling back to defaultLevel.
func LevelFromEnv(defaultLevel logging.Level) logging.Level {
	env := os.Getenv("CROW_LOG_LEVEL")
	if env == "" {
		return defaultLevel
	}
	level, err := logging.LogLevel(env)
	if err != nil {
		return defaultLevel
	}
	return level
}

// stderr resolves os.Stderr on every write, so redirecting it later still
// captures the default backend.
type stderr struct{}

func (stderr) Write(p []byte) (int, error) {
	return os.Stderr.Write(p)
}

// DefaultLevel applies until a program calls SetupLogging. Library packages
// stay quiet below it.
const DefaultLevel = logging.WARNING

func init() {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(stderr{}, "", 0), stderrFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(LevelFromEnv(DefaultLevel), "")
	logging.SetBackend(leveled)
}

// SetupLogging installs the process-wide backend. Every module logger
// (pcom, socket, peer) writes through it.
func SetupLogging(prefix string, defaultLogLevel logging.Level, trySyslog bool) *logging.Logger {
	var backend logging.Backend
	if trySyslog {
		backend = getSyslogBackend(prefix)
	}
	if backend == nil {
		backend = logging.NewLogBackend(stderr{}, prefix+" ", 0)
		logging.SetFormatter(stderrFormat)
	}
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(LevelFromEnv(defaultLogLevel), "")

	logging.SetBackend(leveled)
	return Log
}
