//go:build unix

package main

import "github.com/phstream/crow/common/socket"

const defaultDirHint = socket.DefaultDir
