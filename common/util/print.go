package util

import (
	"fmt"
	"io"
	"os"
)

func PrintErr(stderr io.Writer, msg string, args ...interface{}) {
	stderr.Write([]byte(fmt.Sprintf(msg, args...) + "\n"))
}

func PrintFatal(stderr io.Writer, msg string, args ...interface{}) {
	PrintErr(stderr, msg, args...)
	os.Exit(1)
}
