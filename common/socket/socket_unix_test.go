//go:build unix

package socket

import (
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/phstream/crow/common/errcode"
)

func TestResolveUnix(t *testing.T) {
	tr := NewUnixTransport("")
	addr, err := tr.Resolve("pcomtest")
	if err != nil {
		t.Fatal(err)
	}
	if addr != "/var/tmp/pcomtest.sock" {
		t.Fatalf("unexpected address %q", addr)
	}

	tr = NewUnixTransport("/run/crow/")
	if addr, _ := tr.Resolve("x"); addr != "/run/crow/x.sock" {
		t.Fatalf("unexpected address %q", addr)
	}
}

func TestResolveIsPure(t *testing.T) {
	dir := t.TempDir()
	tr := NewUnixTransport(dir)
	first, err := tr.Resolve("pure")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		addr, err := tr.Resolve("pure")
		if err != nil || addr != first {
			t.Fatalf("resolve changed: %q %v", addr, err)
		}
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatal("resolve must not create anything")
	}
}

func TestResolveNameTooLong(t *testing.T) {
	tr := NewUnixTransport("/var/tmp")
	// "/var/tmp/" + name + ".sock" is 14 bytes of overhead
	fits := strings.Repeat("n", maxUnixPath-14)
	if _, err := tr.Resolve(fits); err != nil {
		t.Fatalf("%d byte path should fit: %v", maxUnixPath, err)
	}
	addr, err := tr.Resolve(fits + "n")
	if errcode.Of(err) != errcode.NameTooLong {
		t.Fatalf("expected NameTooLong, got %v", err)
	}
	if addr != "" {
		t.Fatalf("partial address returned: %q", addr)
	}
	// the outcome is stable
	if _, err2 := tr.Resolve(fits + "n"); errcode.Of(err2) != errcode.Of(err) {
		t.Fatal("second resolve disagreed")
	}
}

func TestListenRemovesStaleSocket(t *testing.T) {
	dir := t.TempDir()
	tr := NewUnixTransport(dir)
	addr, err := tr.Resolve("stale")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(addr, nil, 0600); err != nil {
		t.Fatal(err)
	}
	l, err := tr.Listen(addr)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(addr); !os.IsNotExist(err) {
		t.Fatal("close should unlink the socket file")
	}
}

func TestDialNoServer(t *testing.T) {
	tr := NewUnixTransport(t.TempDir())
	addr, _ := tr.Resolve("nobody")
	start := time.Now()
	_, err := tr.Dial(addr)
	if err == nil {
		t.Fatal("dial should fail without a server")
	}
	code := errcode.Of(err)
	if !code.IsOS() {
		t.Fatalf("expected an OS error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("dial without a server must not wait")
	}
}

func TestDialAndAccept(t *testing.T) {
	tr := NewUnixTransport(t.TempDir())
	addr, _ := tr.Resolve("peer")
	l, err := tr.Listen(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- c
	}()

	client, err := tr.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	server := <-accepted
	if server == nil {
		t.Fatal("accept failed")
	}
	defer server.Close()

	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(server, buf); err != nil || string(buf) != "ping" {
		t.Fatalf("read %q, %v", buf, err)
	}
}
