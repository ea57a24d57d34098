package session

import (
	"context"
	"net/http"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/hitsound"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/playback"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/respack"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPongTimeout  = 30 * time.Second
)

type wireBrowserCommand struct {
	Kind   byte
	RoomID string
}

type wireBrowserEvent struct {
	Kind       byte
	OK         bool
	Err        string
	User       User
	Room       RoomState
	State      RoomState
	JoinedUser User
	LeftUserID int64
	PlayerID   string
	Touches    []wireTouch
	Judges     []wireJudge
	Chat       ChatMessage
}

func toWireBrowserEvent(e BrowserEvent) wireBrowserEvent {
	return wireBrowserEvent{
		Kind:       byte(e.Kind),
		OK:         e.OK,
		Err:        e.Err,
		User:       e.User,
		Room:       e.Room,
		State:      e.State,
		JoinedUser: e.JoinedUser,
		LeftUserID: e.LeftUserID,
		PlayerID:   e.PlayerID,
		Touches:    touchFramesToWire(e.Touches),
		Judges:     judgeEventsToWire(e.Judges),
		Chat:       e.Chat,
	}
}

func touchFramesToWire(in []playback.TouchFrame) []wireTouch {
	if in == nil {
		return nil
	}
	out := make([]wireTouch, len(in))
	for i, t := range in {
		out[i] = wireTouch{FingerID: t.FingerID, Time: t.Time, X: t.Pos.X, Y: t.Pos.Y}
	}
	return out
}

func judgeEventsToWire(in []playback.JudgeEvent) []wireJudge {
	if in == nil {
		return nil
	}
	out := make([]wireJudge, len(in))
	for i, j := range in {
		out[i] = wireJudge{LineIdx: j.Note.LineIdx, NoteIdx: j.Note.NoteIdx, Time: j.Time, Kind: int(j.Kind)}
	}
	return out
}

// Upgrader holds the dependencies every /ws/live connection needs to spin
// up a dispatcher: where to dial the upstream game server, and the shared
// chart/resource lookups scenes are built from.
type Upgrader struct {
	MPServerAddr   string
	AllowedOrigins []string
	Charts         ChartSource
	HitSounds      *hitsound.Set
	Pack           *respack.Pack
	Timing         playback.Timing
	Log            zerolog.Logger

	upgrader websocket.Upgrader
}

// NewUpgrader builds an Upgrader; call ServeHTTP to handle a /ws/live
// request.
func NewUpgrader(mpServerAddr string, allowedOrigins []string, charts ChartSource, hs *hitsound.Set, pack *respack.Pack, timing playback.Timing, log zerolog.Logger) *Upgrader {
	u := &Upgrader{
		MPServerAddr:   mpServerAddr,
		AllowedOrigins: allowedOrigins,
		Charts:         charts,
		HitSounds:      hs,
		Pack:           pack,
		Timing:         timing,
		Log:            log,
	}
	u.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     u.checkOrigin,
	}
	return u
}

func (u *Upgrader) checkOrigin(r *http.Request) bool {
	for _, o := range u.AllowedOrigins {
		if o == "*" || o == r.Header.Get("Origin") {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request to a WebSocket, dials the upstream game
// server, and drives the resulting Dispatcher for the lifetime of the
// connection. The browser's auth token arrives as a query parameter
// ("token"), relayed upstream as the authentication bearer.
func (u *Upgrader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		u.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	up, err := DialUpstream(ctx, u.MPServerAddr, u.Log)
	if err != nil {
		u.Log.Warn().Err(err).Msg("failed to dial upstream game server")
		return
	}
	defer up.Close()

	d := NewDispatcher(up, u.Charts, u.HitSounds, u.Pack, u.Timing, u.Log)
	if err := d.Authenticate(ctx, r.URL.Query().Get("token")); err != nil {
		u.Log.Warn().Err(err).Msg("upstream authentication failed")
		return
	}

	go d.Run(ctx)

	go u.writePump(ctx, conn, d)
	u.readPump(ctx, conn, cancel, d)
}

func (u *Upgrader) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, d *Dispatcher) {
	defer cancel()
	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var w wireBrowserCommand
		if err := cbor.Unmarshal(payload, &w); err != nil {
			u.Log.Warn().Err(err).Msg("dropping malformed browser command")
			continue
		}
		cmd := BrowserCommand{Kind: BrowserCommandKind(w.Kind), RoomID: w.RoomID}
		if err := d.Handle(cmd); err != nil {
			u.Log.Warn().Err(err).Msg("failed to relay browser command upstream")
			return
		}
	}
}

func (u *Upgrader) writePump(ctx context.Context, conn *websocket.Conn, d *Dispatcher) {
	ping := time.NewTicker(wsPongTimeout / 2)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case evt, ok := <-d.Outbound():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			payload, err := cbor.Marshal(toWireBrowserEvent(evt))
			if err != nil {
				u.Log.Warn().Err(err).Msg("failed to encode browser event")
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				return
			}
		}
	}
}
