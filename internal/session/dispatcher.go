package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/hitsound"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/playback"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/respack"
)

// ChartSource resolves a chart for a room, handing the dispatcher a chart
// plus its metadata so it can seed headless scenes per player.
type ChartSource interface {
	Resolve(ctx context.Context, room RoomState) (*chart.Chart, *chart.Info, error)
}

// Dispatcher owns one browser connection's session: it duplexes the
// downstream WebSocket against an upstream game-server TCP connection and
// keeps a headless playback.Scene per player the room reports, per the
// per-player scene registry described for C4.
type Dispatcher struct {
	ID        string
	upstream  *UpstreamClient
	outbound  chan BrowserEvent
	log       zerolog.Logger
	charts    ChartSource
	hitsounds *hitsound.Set
	pack      *respack.Pack
	timing    playback.Timing

	mu     sync.Mutex
	scenes map[string]*playback.Scene
	room   RoomState
	closed bool
}

// NewDispatcher constructs a dispatcher bound to an already-dialed
// upstream connection. Call Run to drive it until either side closes.
func NewDispatcher(upstream *UpstreamClient, charts ChartSource, hs *hitsound.Set, pack *respack.Pack, timing playback.Timing, log zerolog.Logger) *Dispatcher {
	id := uuid.NewString()
	return &Dispatcher{
		ID:        id,
		upstream:  upstream,
		outbound:  make(chan BrowserEvent, 64),
		log:       log.With().Str("component", "dispatcher").Str("session_id", id).Logger(),
		charts:    charts,
		hitsounds: hs,
		pack:      pack,
		timing:    timing,
		scenes:    make(map[string]*playback.Scene),
	}
}

// Outbound is the stream of events to relay to the browser.
func (d *Dispatcher) Outbound() <-chan BrowserEvent { return d.outbound }

// Authenticate sends the upstream handshake and waits for its reply,
// forwarding an Authenticate event downstream either way.
func (d *Dispatcher) Authenticate(ctx context.Context, token string) error {
	if err := d.upstream.Send(UpstreamCommand{Kind: UpCmdAuthenticate, Token: token}); err != nil {
		return err
	}
	select {
	case evt, ok := <-d.upstream.Events():
		if !ok {
			return context.Canceled
		}
		d.emit(BrowserEvent{Kind: EvtAuthenticate, OK: evt.OK, Err: evt.Err, User: evt.User})
		if !evt.OK {
			return &authError{reason: evt.Err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type authError struct{ reason string }

func (e *authError) Error() string { return "upstream authentication rejected: " + e.reason }

// Handle processes one browser command (step 2: Join -> JoinRoom, Leave
// -> LeaveRoom). Ready is accepted but not relayed: nothing is sent
// upstream for it.
func (d *Dispatcher) Handle(cmd BrowserCommand) error {
	switch cmd.Kind {
	case CmdJoin:
		return d.upstream.Send(UpstreamCommand{Kind: UpCmdJoinRoom, RoomID: cmd.RoomID, Monitor: true})
	case CmdLeave:
		d.teardownAllScenes()
		return d.upstream.Send(UpstreamCommand{Kind: UpCmdLeaveRoom})
	case CmdReady:
		// The monitor never plays, so Ready is a no-op pass-through; the
		// game server does not expect a monitor connection to ready up.
		return nil
	}
	return nil
}

// Run pumps upstream events until the connection closes or ctx is
// cancelled, translating and relaying everything per the dispatcher's
// six-step behavior (step 3: forward every state change, whatever its
// status; on SelectChart / WaitingForReady the browser fetches the chart
// itself and the dispatcher does not wait for it).
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.teardownAllScenes()
	for {
		select {
		case <-ctx.Done():
			d.sendLeaveBestEffort()
			return
		case err, ok := <-d.upstream.Err():
			if ok {
				d.log.Warn().Err(err).Msg("upstream connection failed")
			}
			return
		case evt, ok := <-d.upstream.Events():
			if !ok {
				return
			}
			d.handleUpstream(ctx, evt)
		}
	}
}

func (d *Dispatcher) handleUpstream(ctx context.Context, evt UpstreamEvent) {
	switch evt.Kind {
	case UpEvtJoinRoom:
		d.mu.Lock()
		d.room = evt.Room
		d.mu.Unlock()
		d.emit(BrowserEvent{Kind: EvtJoin, OK: evt.OK, Err: evt.Err, Room: evt.Room})
	case UpEvtLeaveRoom:
		d.teardownAllScenes()
		d.emit(BrowserEvent{Kind: EvtLeave, OK: evt.OK, Err: evt.Err})
	case UpEvtOnJoinRoom:
		// Step 4: seed a headless scene per listed player.
		d.seedScenes(ctx, evt.RoomPlayers)
	case UpEvtChangeState:
		d.mu.Lock()
		d.room.Status = evt.State.Status
		d.mu.Unlock()
		d.emit(BrowserEvent{Kind: EvtStateChange, State: evt.State})
		if evt.State.Status == RoomPlaying {
			// Step 6: start() every scene once play begins.
			d.startAllScenes()
		}
	case UpEvtMessage:
		d.emit(BrowserEvent{Kind: EvtMessage, Chat: evt.Chat})
	case UpEvtTouches:
		// Step 5: route to the named player's scene mailbox.
		if sc := d.sceneFor(evt.PlayerID); sc != nil {
			sc.PushTouches(evt.Touches)
		}
		d.emit(BrowserEvent{Kind: EvtTouches, PlayerID: evt.PlayerID, Touches: evt.Touches})
	case UpEvtJudges:
		if sc := d.sceneFor(evt.PlayerID); sc != nil {
			sc.PushJudges(evt.Judges)
		}
		d.emit(BrowserEvent{Kind: EvtJudges, PlayerID: evt.PlayerID, Judges: evt.Judges})
	}

	// UserJoin/UserLeave are folded into UpEvtJoinRoom/UpEvtOnJoinRoom's
	// JoinedUser/LeftUserID fields by the upstream decoder when present.
	if evt.JoinedUser.ID != 0 {
		d.addPlayer(ctx, evt.JoinedUser)
		d.emit(BrowserEvent{Kind: EvtUserJoin, JoinedUser: evt.JoinedUser})
	}
	if evt.LeftUserID != 0 {
		d.removePlayer(evt.LeftUserID)
		d.emit(BrowserEvent{Kind: EvtUserLeave, LeftUserID: evt.LeftUserID})
	}
}

func (d *Dispatcher) seedScenes(ctx context.Context, players []User) {
	d.mu.Lock()
	room := d.room
	d.mu.Unlock()

	ch, info, err := d.resolveChart(ctx, room)
	if err != nil {
		d.log.Warn().Err(err).Msg("could not resolve chart for room, scenes will start empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range players {
		id := playerKey(p)
		if _, ok := d.scenes[id]; ok {
			continue
		}
		d.scenes[id] = playback.NewScene(id, ch, info, d.timing, playback.ModeLive, wallNow, nil, nil, d.hitsounds, d.pack, d.log)
	}
}

func (d *Dispatcher) addPlayer(ctx context.Context, u User) {
	d.mu.Lock()
	room := d.room
	_, exists := d.scenes[playerKey(u)]
	d.mu.Unlock()
	if exists {
		return
	}
	ch, info, err := d.resolveChart(ctx, room)
	if err != nil {
		d.log.Warn().Err(err).Msg("could not resolve chart for new player, scene will start empty")
	}
	d.mu.Lock()
	d.scenes[playerKey(u)] = playback.NewScene(playerKey(u), ch, info, d.timing, playback.ModeLive, wallNow, nil, nil, d.hitsounds, d.pack, d.log)
	d.mu.Unlock()
}

func (d *Dispatcher) removePlayer(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.scenes {
		if id == playerKeyID(userID) {
			delete(d.scenes, id)
		}
	}
}

func (d *Dispatcher) resolveChart(ctx context.Context, room RoomState) (*chart.Chart, *chart.Info, error) {
	if d.charts == nil {
		return nil, nil, nil
	}
	return d.charts.Resolve(ctx, room)
}

func (d *Dispatcher) sceneFor(playerID string) *playback.Scene {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scenes[playerID]
}

func (d *Dispatcher) startAllScenes() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, sc := range d.scenes {
		sc.Start()
	}
}

func (d *Dispatcher) teardownAllScenes() {
	d.mu.Lock()
	d.scenes = make(map[string]*playback.Scene)
	d.mu.Unlock()
}

func (d *Dispatcher) sendLeaveBestEffort() {
	_ = d.upstream.Send(UpstreamCommand{Kind: UpCmdLeaveRoom})
}

func (d *Dispatcher) emit(evt BrowserEvent) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}
	select {
	case d.outbound <- evt:
	case <-time.After(time.Second):
		d.log.Warn().Msg("dropping browser event: outbound channel full")
	}
}

// Close marks the dispatcher closed and stops emitting further browser
// events; callers still own closing the underlying upstream connection.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	close(d.outbound)
}

func playerKey(u User) string      { return playerKeyID(u.ID) }
func playerKeyID(id int64) string { return strconv.FormatInt(id, 10) }

func wallNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
