package session

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
)

// fakeUpstreamServer accepts a single connection and exposes raw
// frame send/receive, letting tests drive the wire protocol from the
// other end without a real game server.
type fakeUpstreamServer struct {
	ln   net.Listener
	conn net.Conn
}

func startFakeUpstreamServer(t *testing.T) *fakeUpstreamServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &fakeUpstreamServer{ln: ln}
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeUpstreamServer) accept(t *testing.T) {
	t.Helper()
	conn, err := s.ln.Accept()
	if err != nil {
		t.Fatal(err)
	}
	s.conn = conn
	t.Cleanup(func() { conn.Close() })
}

func (s *fakeUpstreamServer) readFrame(t *testing.T) wireCommand {
	t.Helper()
	var hdr [4]byte
	if _, err := io.ReadFull(s.conn, hdr[:]); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, binary.BigEndian.Uint32(hdr[:]))
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		t.Fatal(err)
	}
	var cmd wireCommand
	if err := cbor.Unmarshal(buf, &cmd); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func (s *fakeUpstreamServer) sendEvent(t *testing.T, evt wireEvent) {
	t.Helper()
	payload, err := cbor.Marshal(evt)
	if err != nil {
		t.Fatal(err)
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := s.conn.Write(hdr[:]); err != nil {
		t.Fatal(err)
	}
	if _, err := s.conn.Write(payload); err != nil {
		t.Fatal(err)
	}
}

func TestDialUpstream_SendAndReceive(t *testing.T) {
	srv := startFakeUpstreamServer(t)

	accepted := make(chan struct{})
	go func() { srv.accept(t); close(accepted) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := DialUpstream(ctx, srv.ln.Addr().String(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	<-accepted

	if err := client.Send(UpstreamCommand{Kind: UpCmdAuthenticate, Token: "tok"}); err != nil {
		t.Fatal(err)
	}
	cmd := srv.readFrame(t)
	if cmd.Kind != byte(UpCmdAuthenticate) || cmd.Token != "tok" {
		t.Fatalf("server saw %+v, want authenticate/tok", cmd)
	}

	srv.sendEvent(t, wireEvent{Kind: byte(UpEvtAuthenticate), OK: true, User: User{ID: 1, Name: "alice"}})
	select {
	case evt := <-client.Events():
		if evt.Kind != UpEvtAuthenticate || !evt.OK || evt.User.Name != "alice" {
			t.Fatalf("client saw %+v, want authenticate/ok/alice", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestDialUpstream_PongSuppressesHeartbeatFailure(t *testing.T) {
	srv := startFakeUpstreamServer(t)
	accepted := make(chan struct{})
	go func() { srv.accept(t); close(accepted) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := DialUpstream(ctx, srv.ln.Addr().String(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	<-accepted

	srv.sendEvent(t, wireEvent{Kind: byte(UpEvtPong)})
	// A pong should never surface as a BrowserEvent-bound UpstreamEvent.
	select {
	case evt := <-client.Events():
		t.Fatalf("unexpected event surfaced for a pong: %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}
