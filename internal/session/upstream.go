package session

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/diag"
)

const (
	heartbeatInterval      = 5 * time.Second
	heartbeatTimeout       = 3 * time.Second
	maxMissedHeartbeats    = 3
	maxUpstreamFrameLength = 1 << 20
)

// wireCommand/wireEvent are the CBOR-serializable shapes of UpstreamCommand
// and UpstreamEvent; keeping them distinct from the in-process types lets
// either side evolve its Go representation without touching the wire
// format.
type wireCommand struct {
	Kind    byte
	Token   string
	RoomID  string
	Monitor bool
}

type wireEvent struct {
	Kind        byte
	OK          bool
	Err         string
	User        User
	Room        RoomState
	PlayerID    string
	Touches     []wireTouch
	Judges      []wireJudge
	Chat        ChatMessage
	State       RoomState
	RoomPlayers []User
	JoinedUser  User
	LeftUserID  int64
}

type wireTouch struct {
	FingerID int64
	Time     float64
	X, Y     float64
}

type wireJudge struct {
	LineIdx, NoteIdx int
	Time             float64
	Kind             int
}

// UpstreamClient is a duplex connection to the game server's monitor
// protocol: a length-prefixed CBOR stream over TCP, kept alive by a
// client-driven heartbeat.
type UpstreamClient struct {
	conn net.Conn
	log  zerolog.Logger

	events chan UpstreamEvent
	errc   chan error
	pongs  chan struct{}

	missedPongs atomic.Int32
}

// DialUpstream opens a TCP connection to addr and starts its background
// read pump and heartbeat loop. The caller must send UpCmdAuthenticate as
// its first command.
func DialUpstream(ctx context.Context, addr string, log zerolog.Logger) (*UpstreamClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &diag.Error{Kind: diag.TransientUpstream, Op: "upstream.dial", Err: err}
	}
	c := &UpstreamClient{
		conn:   conn,
		log:    log.With().Str("component", "upstream").Str("addr", addr).Logger(),
		events: make(chan UpstreamEvent, 64),
		errc:   make(chan error, 1),
		pongs:  make(chan struct{}, 1),
	}
	go c.readPump()
	go c.heartbeatLoop()
	return c, nil
}

// Events returns the channel of events read from the upstream connection.
// It is closed (after emitting a final error on Err()) when the
// connection drops.
func (c *UpstreamClient) Events() <-chan UpstreamEvent { return c.events }

// Err returns the channel the terminal read/heartbeat error is posted to.
func (c *UpstreamClient) Err() <-chan error { return c.errc }

// Send encodes and writes one command, length-prefixed, to the upstream
// connection.
func (c *UpstreamClient) Send(cmd UpstreamCommand) error {
	wc := wireCommand{Kind: byte(cmd.Kind), Token: cmd.Token, RoomID: cmd.RoomID, Monitor: cmd.Monitor}
	payload, err := cbor.Marshal(wc)
	if err != nil {
		return &diag.Error{Kind: diag.PermanentUpstream, Op: "upstream.encode", Err: err}
	}
	return c.writeFrame(payload)
}

func (c *UpstreamClient) writeFrame(payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := c.conn.Write(hdr[:]); err != nil {
		return &diag.Error{Kind: diag.TransientUpstream, Op: "upstream.write", Err: err}
	}
	if _, err := c.conn.Write(payload); err != nil {
		return &diag.Error{Kind: diag.TransientUpstream, Op: "upstream.write", Err: err}
	}
	return nil
}

// Close tears down the connection; readPump and heartbeatLoop exit on the
// resulting read/write errors.
func (c *UpstreamClient) Close() error {
	return c.conn.Close()
}

func (c *UpstreamClient) readPump() {
	defer close(c.events)
	for {
		payload, err := c.readFrame()
		if err != nil {
			c.fail(&diag.Error{Kind: diag.TransientUpstream, Op: "upstream.read", Err: err})
			return
		}
		var w wireEvent
		if err := cbor.Unmarshal(payload, &w); err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed upstream frame")
			continue
		}
		if UpstreamEventKind(w.Kind) == UpEvtPong {
			select {
			case c.pongs <- struct{}{}:
			default:
			}
			continue
		}
		c.events <- fromWireEvent(w)
	}
}

func (c *UpstreamClient) readFrame() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(c.conn, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxUpstreamFrameLength {
		return nil, &diag.Error{Kind: diag.TransientUpstream, Op: "upstream.readFrame", Err: io.ErrShortBuffer}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// heartbeatLoop sends a ping every heartbeatInterval and gives each one its
// own heartbeatTimeout window to draw a Pong, independent of the send
// cadence; a ping that times out counts as missed regardless of when the
// next tick falls.
func (c *UpstreamClient) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := c.Send(UpstreamCommand{Kind: UpCmdPing}); err != nil {
			return // readPump's ensuing read error reports the failure
		}
		select {
		case <-c.pongs:
			c.missedPongs.Store(0)
		case <-time.After(heartbeatTimeout):
			if c.missedPongs.Add(1) >= maxMissedHeartbeats {
				c.fail(&diag.Error{Kind: diag.TransientUpstream, Op: "upstream.heartbeat", Err: context.DeadlineExceeded})
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (c *UpstreamClient) fail(err error) {
	select {
	case c.errc <- err:
	default:
	}
}

func fromWireEvent(w wireEvent) UpstreamEvent {
	touches := make([]wireTouch, len(w.Touches))
	copy(touches, w.Touches)
	return UpstreamEvent{
		Kind:        UpstreamEventKind(w.Kind),
		OK:          w.OK,
		Err:         w.Err,
		User:        w.User,
		Room:        w.Room,
		PlayerID:    w.PlayerID,
		Touches:     touchFramesFromWire(w.Touches),
		Judges:      judgeEventsFromWire(w.Judges),
		Chat:        w.Chat,
		State:       w.State,
		RoomPlayers: w.RoomPlayers,
		JoinedUser:  w.JoinedUser,
		LeftUserID:  w.LeftUserID,
	}
}
