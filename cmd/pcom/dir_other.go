//go:build !unix

package main

const defaultDirHint = "unused, pipes have no directory"
