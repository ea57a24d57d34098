package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// RoomSummary is one room's listing, as surfaced over /rooms/info.
type RoomSummary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Players []string `json:"players"`
}

// RoomLister fetches the current room listing from upstream; the
// directory polls it on a fixed interval and diffs snapshots to drive
// /rooms/listen.
type RoomLister interface {
	ListRooms(ctx context.Context) ([]RoomSummary, error)
}

// RoomEventKind discriminates /rooms/listen's SSE event names.
type RoomEventKind string

const (
	RoomEventCreate RoomEventKind = "create"
	RoomEventUpdate RoomEventKind = "update"
	RoomEventDelete RoomEventKind = "delete"
)

// RoomEvent is one SSE payload emitted on /rooms/listen.
type RoomEvent struct {
	Kind RoomEventKind `json:"kind"`
	Room RoomSummary   `json:"room"`
}

const roomPollInterval = time.Second

// RoomDirectory polls RoomLister every second and keeps the last-known
// snapshot plus a fan-out of SSE subscribers in sync with it.
type RoomDirectory struct {
	lister RoomLister

	mu    sync.RWMutex
	rooms map[string]RoomSummary
	subs  map[chan RoomEvent]struct{}
}

// NewRoomDirectory starts the polling loop and returns the directory. The
// loop stops when ctx is cancelled.
func NewRoomDirectory(ctx context.Context, lister RoomLister) *RoomDirectory {
	d := &RoomDirectory{
		lister: lister,
		rooms:  make(map[string]RoomSummary),
		subs:   make(map[chan RoomEvent]struct{}),
	}
	go d.pollLoop(ctx)
	return d
}

func (d *RoomDirectory) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(roomPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.refresh(ctx)
		}
	}
}

func (d *RoomDirectory) refresh(ctx context.Context) {
	rooms, err := d.lister.ListRooms(ctx)
	if err != nil {
		return
	}
	fresh := make(map[string]RoomSummary, len(rooms))
	for _, r := range rooms {
		fresh[r.ID] = r
	}

	d.mu.Lock()
	var events []RoomEvent
	for id, r := range fresh {
		if old, ok := d.rooms[id]; !ok {
			events = append(events, RoomEvent{Kind: RoomEventCreate, Room: r})
		} else if !reflect.DeepEqual(old, r) {
			events = append(events, RoomEvent{Kind: RoomEventUpdate, Room: r})
		}
	}
	for id, r := range d.rooms {
		if _, ok := fresh[id]; !ok {
			events = append(events, RoomEvent{Kind: RoomEventDelete, Room: r})
		}
	}
	d.rooms = fresh
	d.mu.Unlock()

	for _, evt := range events {
		d.broadcast(evt)
	}
}

func (d *RoomDirectory) broadcast(evt RoomEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for ch := range d.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Snapshot returns every currently known room.
func (d *RoomDirectory) Snapshot() []RoomSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomSummary, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, r)
	}
	return out
}

// Get returns one room by id.
func (d *RoomDirectory) Get(id string) (RoomSummary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[id]
	return r, ok
}

// subscribe registers a channel that receives room events as they occur
// plus an initial replay of the current snapshot, returning an
// unsubscribe func.
func (d *RoomDirectory) subscribe() (ch chan RoomEvent, initial []RoomSummary, unsubscribe func()) {
	ch = make(chan RoomEvent, 32)
	d.mu.Lock()
	d.subs[ch] = struct{}{}
	initial = make([]RoomSummary, 0, len(d.rooms))
	for _, r := range d.rooms {
		initial = append(initial, r)
	}
	d.mu.Unlock()
	return ch, initial, func() {
		d.mu.Lock()
		delete(d.subs, ch)
		d.mu.Unlock()
		close(ch)
	}
}

func (rt *Router) handleRoomsInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.rooms.Snapshot())
}

func (rt *Router) handleRoomInfoByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	room, ok := rt.rooms.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (rt *Router) handleRoomUserByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	room, ok := rt.rooms.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown user")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (rt *Router) handleRoomsListen(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, initial, unsubscribe := rt.rooms.subscribe()
	defer unsubscribe()

	for _, room := range initial {
		writeSSE(w, RoomEvent{Kind: RoomEventCreate, Room: room})
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, evt)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, evt RoomEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, payload)
}
