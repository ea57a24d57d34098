// Package session implements the live dispatcher (spec's C4): one task
// per browser connection, duplexing a downstream WebSocket tagged-union
// protocol against an upstream TCP connection to the game server, and
// keeping a per-player internal/playback.Scene registry in sync with
// room state.
package session

import "github.com/HyperSynapseNetwork/phira-web-monitor/internal/playback"

// User is a room participant, as reported by the upstream server.
type User struct {
	ID   int64
	Name string
}

// RoomState is the upstream server's room snapshot, passed through to the
// browser on StateChange and included in the Join response.
type RoomState struct {
	ID      string
	Name    string
	ChartID string
	Players []User
	Status  RoomStatus
}

// RoomStatus mirrors the upstream room's play-state machine.
type RoomStatus int

const (
	RoomWaitingForReady RoomStatus = iota
	RoomPlaying
	RoomSelectChart
)

// ChatMessage is a chat line relayed by the upstream server.
type ChatMessage struct {
	From int64
	Text string
}

// --- Browser -> server (downstream inbound) ---

// BrowserCommandKind discriminates browser -> server messages.
type BrowserCommandKind byte

const (
	CmdJoin BrowserCommandKind = iota
	CmdLeave
	CmdReady
)

// BrowserCommand is one message the browser sends over its WebSocket.
type BrowserCommand struct {
	Kind   BrowserCommandKind
	RoomID string // only meaningful for CmdJoin
}

// --- Server -> browser (downstream outbound) ---

// BrowserEventKind discriminates server -> browser events.
type BrowserEventKind byte

const (
	EvtAuthenticate BrowserEventKind = iota
	EvtJoin
	EvtLeave
	EvtStateChange
	EvtUserJoin
	EvtUserLeave
	EvtTouches
	EvtJudges
	EvtMessage
)

// BrowserEvent is one message the dispatcher sends to the browser. Only
// the fields relevant to Kind are populated; the rest are zero.
type BrowserEvent struct {
	Kind BrowserEventKind

	// EvtAuthenticate / EvtJoin / EvtLeave.
	OK      bool
	Err     string
	User    User
	Room    RoomState

	// EvtStateChange.
	State RoomState

	// EvtUserJoin / EvtUserLeave.
	JoinedUser User
	LeftUserID int64

	// EvtTouches / EvtJudges.
	PlayerID string
	Touches  []playback.TouchFrame
	Judges   []playback.JudgeEvent

	// EvtMessage.
	Chat ChatMessage
}

// --- Upstream game-server protocol ---

// UpstreamCommandKind discriminates client -> upstream-server commands.
type UpstreamCommandKind byte

const (
	UpCmdAuthenticate UpstreamCommandKind = iota
	UpCmdJoinRoom
	UpCmdLeaveRoom
	UpCmdPing
)

// UpstreamCommand is one command the dispatcher sends to the upstream
// game server over its TCP stream.
type UpstreamCommand struct {
	Kind    UpstreamCommandKind
	Token   string // UpCmdAuthenticate
	RoomID  string // UpCmdJoinRoom
	Monitor bool   // UpCmdJoinRoom: always true for the spectator client
}

// UpstreamEventKind discriminates upstream-server -> client events.
type UpstreamEventKind byte

const (
	UpEvtAuthenticate UpstreamEventKind = iota
	UpEvtJoinRoom
	UpEvtLeaveRoom
	UpEvtPong
	UpEvtTouches
	UpEvtJudges
	UpEvtMessage
	UpEvtChangeState
	UpEvtOnJoinRoom
)

// UpstreamEvent is one event received from the upstream game server.
type UpstreamEvent struct {
	Kind UpstreamEventKind

	OK   bool
	Err  string
	User User
	Room RoomState

	PlayerID string
	Touches  []playback.TouchFrame
	Judges   []playback.JudgeEvent
	Chat     ChatMessage

	State RoomState // UpEvtChangeState

	RoomPlayers []User // UpEvtOnJoinRoom: the full player roster to seed scenes from

	JoinedUser User  // UpEvtJoinRoom event variant carrying a single new player (UserJoin)
	LeftUserID int64 // UserLeave
}
