package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/phstream/crow/common/errcode"
	"github.com/phstream/crow/common/util"
	"github.com/phstream/crow/common/version"
	"github.com/phstream/crow/pcom"
)

func clientCommand(c *cli.Context) (err error) {
	err = sendMessage(c.GlobalString("name"), c.String("message"), os.Stdout, transportOption(c))
	if err != nil {
		fatalCode(err)
	}
	return
}

// sendMessage sends message and prints the server's reply.
func sendMessage(name, message string, stdout io.Writer, opts ...pcom.Option) (err error) {
	conn, err := pcom.OpenClient(name, opts...)
	if err != nil {
		return errors.Wrap(err, "Client open failed")
	}
	defer conn.Close()

	if _, err = conn.Send([]byte(message)); err != nil {
		return errors.Wrap(err, "Send failed")
	}
	buf := make([]byte, 128)
	n, err := conn.Recv(buf)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "Receive failed")
	}
	fmt.Fprintf(stdout, "Reply: '%s'\n", buf[:n])
	return nil
}

func errtextCommand(c *cli.Context) (err error) {
	if c.NArg() == 0 {
		util.PrintFatal(os.Stderr, "usage: pcom errtext CODE...")
	}
	if err = describeCodes(c.Args(), os.Stdout); err != nil {
		util.PrintFatal(os.Stderr, err.Error())
	}
	return
}

func describeCodes(args []string, stdout io.Writer) error {
	for _, arg := range args {
		code, err := strconv.Atoi(arg)
		if err != nil {
			return errors.Errorf("%q is not an error code", arg)
		}
		text := pcom.ErrorText(code)
		if errno, ok := errcode.Code(code).Errno(); ok {
			text = fmt.Sprintf("%s (errno %d)", text, int(errno))
		}
		fmt.Fprintf(stdout, "%d: %s\n", code, text)
	}
	return nil
}

func versionCommand(c *cli.Context) (err error) {
	fmt.Fprintf(os.Stdout, "pcom %s (%#06x)\n", version.CURRENT_VERSION, pcom.Version())
	return
}
