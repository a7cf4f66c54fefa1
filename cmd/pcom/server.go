package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/phstream/crow/common/util"
	"github.com/phstream/crow/pcom"
)

func serverCommand(c *cli.Context) (err error) {
	srv, err := pcom.OpenServer(c.GlobalString("name"), transportOption(c))
	if err != nil {
		fatalCode(errors.Wrap(err, "Server open failed"))
	}
	defer srv.Close()
	log.Infof("listening on %s", srv.Addr())

	err = serveOnce(srv, os.Stdout)
	if err != nil {
		srv.Close()
		fatalCode(err)
	}
	return
}

// serveOnce accepts a single client, reports its identity and answers its
// first message with "OK".
func serveOnce(srv *pcom.Server, stdout io.Writer) (err error) {
	fmt.Fprintln(stdout, "Waiting for connection...")
	conn, err := srv.Accept()
	if err != nil {
		return errors.Wrap(err, "Accept failed")
	}
	defer conn.Close()

	id, err := conn.CheckUser()
	if err != nil {
		return errors.Wrap(err, "User check failed")
	}
	fmt.Fprintf(stdout, "User: %s, Groups: %d\n", util.Cyan(id.User), len(id.Groups))
	for i, group := range id.Groups {
		fmt.Fprintf(stdout, "Group %d: %s\n", i, group)
	}
	fmt.Fprintf(stdout, "Is admin: %v\n", id.Admin)

	fmt.Fprintln(stdout, "Waiting for data...")
	buf := make([]byte, 128)
	n, err := conn.Recv(buf)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "Receive failed")
	}
	fmt.Fprintf(stdout, "Received: %s\n", buf[:n])

	if _, err = conn.Send([]byte("OK")); err != nil {
		return errors.Wrap(err, "Send failed")
	}
	return nil
}
