package pcom

import (
	"bytes"
	"io"
	"math/rand"
	"net"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/phstream/crow/common/errcode"
	"github.com/phstream/crow/common/peer"
	"github.com/phstream/crow/common/socket"
)

func testOptions(t *testing.T) []Option {
	return []Option{WithTransport(socket.New(socket.WithDir(t.TempDir())))}
}

func acceptOne(srv *Server) <-chan *Conn {
	accepted := make(chan *Conn, 1)
	go func() {
		conn, err := srv.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- conn
	}()
	return accepted
}

func TestHelloOK(t *testing.T) {
	opts := testOptions(t)
	srv, err := OpenServer("pcomtest", opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	served := make(chan error, 1)
	go func() {
		conn, err := srv.Accept()
		if err != nil {
			served <- err
			return
		}
		buf := make([]byte, 5)
		if _, err := io.ReadFull(conn, buf); err != nil {
			served <- err
			return
		}
		if string(buf) != "Hello" {
			served <- errors.Errorf("server got %q", buf)
			return
		}
		if n, err := conn.Send([]byte("OK")); err != nil || n != 2 {
			served <- errors.Errorf("send OK: %d, %v", n, err)
			return
		}
		served <- conn.Close()
	}()

	client, err := OpenClient("pcomtest", opts...)
	if err != nil {
		t.Fatal(err)
	}
	n, err := client.Send([]byte("Hello"))
	if err != nil || n != 5 {
		t.Fatalf("send Hello: %d, %v", n, err)
	}
	reply := make([]byte, 2)
	if _, err := io.ReadFull(client, reply); err != nil || string(reply) != "OK" {
		t.Fatalf("reply %q, %v", reply, err)
	}
	if err := <-served; err != nil {
		t.Fatal(err)
	}

	n, err = client.Recv(make([]byte, 8))
	if n != 0 || err != io.EOF {
		t.Fatalf("expected orderly shutdown, got %d, %v", n, err)
	}
	if errcode.Of(err) != errcode.EOF {
		t.Fatal("io.EOF should map to EOF")
	}
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRoundTrip(t *testing.T) {
	opts := testOptions(t)
	srv, err := OpenServer("roundtrip", opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	rng := rand.New(rand.NewSource(1))
	for _, size := range []int{1, 7, 4096, 65537, 1 << 20} {
		payload := make([]byte, size)
		rng.Read(payload)

		accepted := acceptOne(srv)
		client, err := OpenClient("roundtrip", opts...)
		if err != nil {
			t.Fatal(err)
		}
		server := <-accepted
		if server == nil {
			t.Fatal("accept failed")
		}

		received := make(chan []byte, 1)
		go func() {
			buf := make([]byte, size)
			if _, err := io.ReadFull(server, buf); err != nil {
				received <- nil
				return
			}
			received <- buf
		}()

		n, err := client.Send(payload)
		if err != nil || n != size {
			t.Fatalf("send %d bytes: %d, %v", size, n, err)
		}
		if got := <-received; !bytes.Equal(got, payload) {
			t.Fatalf("%d byte payload corrupted", size)
		}
		client.Close()
		server.Close()
	}
}

func TestOpenClientWithoutServer(t *testing.T) {
	start := time.Now()
	conn, err := OpenClient("nobody-listens", testOptions(t)...)
	if err == nil {
		conn.Close()
		t.Fatal("expected an error")
	}
	if conn != nil {
		t.Fatal("no connection expected")
	}
	if !errcode.Of(err).IsOS() {
		t.Fatalf("expected an OS error code, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("client open must not wait for a server")
	}
}

func TestOpenServerBadName(t *testing.T) {
	if _, err := OpenServer("", testOptions(t)...); errcode.Of(err) != errcode.Null {
		t.Fatalf("expected Null, got %v", err)
	}
	if _, err := OpenServer("a/b", testOptions(t)...); errcode.Of(err) != errcode.BadValue {
		t.Fatalf("expected BadValue, got %v", err)
	}
}

func TestIndependentServers(t *testing.T) {
	opts := testOptions(t)
	alpha, err := OpenServer("alpha", opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer alpha.Close()
	beta, err := OpenServer("beta", opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer beta.Close()
	if alpha.Addr() == beta.Addr() {
		t.Fatal("servers share an address")
	}

	for _, srv := range []*Server{beta, alpha} {
		accepted := acceptOne(srv)
		client, err := OpenClient(srv.Name(), opts...)
		if err != nil {
			t.Fatal(err)
		}
		server := <-accepted
		if server == nil {
			t.Fatalf("%s: accept failed", srv.Name())
		}
		if _, err := client.Send([]byte(srv.Name())); err != nil {
			t.Fatal(err)
		}
		buf := make([]byte, len(srv.Name()))
		if _, err := io.ReadFull(server, buf); err != nil || string(buf) != srv.Name() {
			t.Fatalf("%s got %q, %v", srv.Name(), buf, err)
		}
		client.Close()
		server.Close()
	}
}

func TestCloseUnblocksAccept(t *testing.T) {
	srv, err := OpenServer("closing", testOptions(t)...)
	if err != nil {
		t.Fatal(err)
	}
	failed := make(chan error, 1)
	go func() {
		_, err := srv.Accept()
		failed <- err
	}()
	time.Sleep(50 * time.Millisecond)
	if err := srv.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-failed:
		if err == nil {
			t.Fatal("accept succeeded on a closed server")
		}
		if !errors.Is(err, net.ErrClosed) {
			t.Fatalf("expected a closed-handle error, got %v", err)
		}
		if errcode.Of(err) == errcode.OK {
			t.Fatal("error must carry a code")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("accept still blocked after close")
	}
}

func TestRecvEmptyBuffer(t *testing.T) {
	opts := testOptions(t)
	srv, err := OpenServer("empty", opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()
	accepted := acceptOne(srv)
	client, err := OpenClient("empty", opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	if server := <-accepted; server != nil {
		defer server.Close()
	}

	if _, err := client.Recv(nil); errcode.Of(err) != errcode.BadSize {
		t.Fatalf("expected BadSize, got %v", err)
	}
	if n, err := client.Read(nil); n != 0 || err != nil {
		t.Fatalf("zero-length Read should be a no-op, got %d, %v", n, err)
	}
}

func TestSilentWithoutSetupLogging(t *testing.T) {
	if os.Getenv("CROW_LOG_LEVEL") != "" {
		t.Skip("CROW_LOG_LEVEL overrides the default level")
	}
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stderr := os.Stderr
	os.Stderr = w
	func() {
		defer func() { os.Stderr = stderr }()
		opts := testOptions(t)
		srv, err := OpenServer("quiet", opts...)
		if err != nil {
			t.Fatal(err)
		}
		accepted := acceptOne(srv)
		client, err := OpenClient("quiet", opts...)
		if err != nil {
			srv.Close()
			t.Fatal(err)
		}
		if server := <-accepted; server != nil {
			server.Close()
		}
		client.Recv(make([]byte, 4))
		client.Close()
		client.Close()
		srv.Close()
	}()
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("library wrote to stderr: %q", out)
	}
}

func TestConnIDsDiffer(t *testing.T) {
	a := newConn(nil, "", nil, peer.DefaultLimits)
	b := newConn(nil, "", nil, peer.DefaultLimits)
	if a.ID() == b.ID() {
		t.Fatal("connection ids collide")
	}
}

func TestVersion(t *testing.T) {
	if Version() != 0x010000 {
		t.Fatalf("version %#x", Version())
	}
}

func TestErrorText(t *testing.T) {
	if ErrorText(0) != "No Error" {
		t.Fatal(ErrorText(0))
	}
	if ErrorText(int(errcode.BufferFull)) != "Buffer Full" {
		t.Fatal(ErrorText(int(errcode.BufferFull)))
	}
	if ErrorText(-999) != "Undefined Error" {
		t.Fatal(ErrorText(-999))
	}
}
