package main

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/phstream/crow/common/errcode"
	clog "github.com/phstream/crow/common/log"
	"github.com/phstream/crow/common/socket"
	"github.com/phstream/crow/common/util"
	"github.com/phstream/crow/common/version"
	"github.com/phstream/crow/pcom"
)

func useSyslog() bool {
	return os.Getenv("CROW_LOG_SYSLOG") == "true"
}

var log = clog.SetupLogging("pcom", logging.WARNING, useSyslog())

func transportOption(c *cli.Context) pcom.Option {
	return pcom.WithTransport(socket.New(
		socket.WithDir(c.GlobalString("dir")),
		socket.WithDialTimeout(c.GlobalDuration("timeout")),
	))
}

// fatalCode prints err with its numeric code and exits.
func fatalCode(err error) {
	code := errcode.Of(err)
	log.Debugf("exiting on %v", err)
	util.PrintFatal(os.Stderr, "%s %s", util.Red("pcom ▶ "+err.Error()), util.Yellow(fmt.Sprintf("(code %d)", code)))
}

func main() {
	app := cli.NewApp()
	app.Name = "pcom"
	app.Usage = "exchange a message over a local IPC channel and show who is on the other end"
	app.Version = version.CURRENT_VERSION.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "name, n",
			Value:  "pcomtest",
			Usage:  "logical connection name",
			EnvVar: "PCOM_NAME",
		},
		cli.StringFlag{
			Name:   "dir",
			Usage:  "directory for Unix socket files (default " + defaultDirHint + ")",
			EnvVar: "PCOM_SOCKET_DIR",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Value: socket.DefaultDialTimeout,
			Usage: "how long a client waits for a busy pipe instance",
		},
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:   "server",
			Usage:  "Accept one client, print its identity, answer its message with OK",
			Action: serverCommand,
		},
		cli.Command{
			Name:  "client",
			Usage: "Send a message to the server and print the reply",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "message, m",
					Value: "Hello",
					Usage: "bytes to send",
				},
			},
			Action: clientCommand,
		},
		cli.Command{
			Name:            "errtext",
			Usage:           "Describe pcom error codes, e.g. pcom errtext -1004 -5",
			ArgsUsage:       "CODE...",
			SkipFlagParsing: true,
			Action:          errtextCommand,
		},
		cli.Command{
			Name:   "version",
			Usage:  "Print the library version and its packed form",
			Action: versionCommand,
		},
	}
	if util.RecoverToLog(func() { app.Run(os.Args) }, log) {
		os.Exit(2)
	}
}
