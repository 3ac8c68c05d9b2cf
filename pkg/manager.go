package pkg

import (
	"cmp"
	"encoding/json"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Manager owns the room table. Every join, relay and removal runs under
// lock, so broadcasts within a room go out in the order they were handled.
type Manager struct {
	lock     sync.Mutex
	config   *Config
	rooms    map[string]*Room
	upgrader websocket.Upgrader
}

type RoomSnapshot struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

func NewManager(config *Config) *Manager {
	return &Manager{
		lock:   sync.Mutex{},
		config: config,
		rooms:  make(map[string]*Room),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Join adds client to roomID under name, creating the room on first use,
// and tells the other members who arrived.
func (m *Manager) Join(client *Client, roomID, name string) error {
	data, err := encodeEvent(&Event{Type: EventTypeUserJoined, User: &name})
	if err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if client.closed {
		return nil
	}

	room, ok := m.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		m.rooms[roomID] = room
		RelayRoomsGauge.Inc()
	}

	room.add(client, name)
	if !lo.Contains(client.rooms, room) {
		client.rooms = append(client.rooms, room)
	}

	m.broadcast(room, client, data)

	log.WithFields(client.logFields()).WithFields(log.Fields{
		"room": roomID,
		"user": name,
	}).Info("User joined room")

	return nil
}

// Relay forwards event to every member of roomID except sender. An unknown
// room is a no-op.
func (m *Manager) Relay(sender *Client, roomID string, event *Event) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}

	m.broadcast(room, sender, data)

	return nil
}

// Remove detaches client from every room it joined and closes its outbound
// channel. Calling it again for the same client does nothing.
func (m *Manager) Remove(client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if client.closed {
		return
	}
	client.closed = true

	for _, room := range client.rooms {
		name, ok := room.remove(client)
		if !ok {
			continue
		}

		fields := log.Fields{"room": room.id, "user": name}

		if !room.empty() {
			data, err := encodeEvent(&Event{Type: EventTypeUserLeft, User: &name})
			if err != nil {
				log.WithFields(fields).Error("Failed to announce departure: ", err)
			} else {
				m.broadcast(room, client, data)
			}
		}

		if room.empty() {
			delete(m.rooms, room.id)
			RelayRoomsGauge.Dec()
		}

		log.WithFields(client.logFields()).WithFields(fields).
			Info("User left room")
	}

	client.rooms = nil
	close(client.send)
}

// broadcast must be called with m.lock held.
func (m *Manager) broadcast(room *Room, sender *Client, data []byte) {
	for _, member := range room.others(sender) {
		if member.closed {
			RelayDroppedCounter.WithLabelValues(dropReasonClosed).Inc()
			continue
		}

		select {
		case member.send <- data:
		default:
			RelayDroppedCounter.WithLabelValues(dropReasonFull).Inc()
			log.WithFields(member.logFields()).WithField("room", room.id).
				Debug("Skipped delivery to backed up client")
		}
	}
}

// HandleMessage decodes one inbound frame and dispatches it.
func (m *Manager) HandleMessage(client *Client, data []byte) error {
	message, err := decodeMessage(data)
	if err != nil {
		return err
	}

	if message == nil {
		log.WithFields(client.logFields()).Debug("Ignored message of unknown type")
		return nil
	}

	RelayEventsCounter.WithLabelValues(string(message.EventType())).Inc()

	if join, ok := message.(*JoinMessage); ok {
		return m.Join(client, join.TargetRoom(), *join.User)
	}

	return m.Relay(client, message.TargetRoom(), outboundEvent(message))
}

// Rooms returns the identifiers of every live room, sorted.
func (m *Manager) Rooms() []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	ids := lo.Keys(m.rooms)
	slices.Sort(ids)
	return ids
}

// Members returns the display names in roomID in join order, or nil if the
// room does not exist.
func (m *Manager) Members(roomID string) []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}

	return slices.Clone(room.names)
}

func (m *Manager) Snapshot() []RoomSnapshot {
	m.lock.Lock()
	defer m.lock.Unlock()

	snapshots := lo.MapToSlice(m.rooms, func(id string, room *Room) RoomSnapshot {
		return RoomSnapshot{ID: id, Members: slices.Clone(room.names)}
	})
	slices.SortFunc(snapshots, func(a, b RoomSnapshot) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return snapshots
}

func (m *Manager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
}

func (m *Manager) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(m.Snapshot())
	if err != nil {
		log.Error("Failed to encode rooms: ", err)
	}
}

func (m *Manager) SocketHandler(w http.ResponseWriter, r *http.Request) {
	// Set the response headers
	w.Header().Set("Cache-Control", "no-cache")

	// Upgrade the connection to a websocket connection
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: ", err)
		return
	}

	defer conn.Close()

	client := NewClient(m, conn)
	logFields := client.logFields()

	RelayConnectionsGauge.Inc()
	defer RelayConnectionsGauge.Dec()

	log.WithFields(logFields).Info("New connection")

	// Start reading messages from the connection
	go client.read()

	// Write messages to the connection
	client.write()

	log.WithFields(logFields).Info("Closed connection")
}
