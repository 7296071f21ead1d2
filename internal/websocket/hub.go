package websocket

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
)

// Hub owns the connection registry and the room membership for one process.
// All map access happens on the Run goroutine; everything else talks to it
// through channels, so handlers never hold a lock across an I/O call. Run
// itself never takes a client's write lock either: sweeping a client only
// closes its Message channel, and the write pump shuts the connection down
// on its own goroutine.
//
// Room emissions travel through a Redis channel per room so that members on
// other gateway instances receive them too. Without a Redis client the hub
// delivers locally only.
type Hub struct {
	redisClient *redis.Client
	pubsub      *redis.PubSub

	clients map[string]*WSClient
	rooms   map[string]map[string]*WSClient

	register   chan *WSClient
	unregister chan *WSClient
	join       chan roomChange
	leave      chan roomChange
	broadcast  chan *roomMessage
	direct     chan *directMessage
	kill       chan string
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		redisClient: redisClient,
		clients:     make(map[string]*WSClient),
		rooms:       make(map[string]map[string]*WSClient),
		register:    make(chan *WSClient),
		unregister:  make(chan *WSClient),
		join:        make(chan roomChange),
		leave:       make(chan roomChange),
		broadcast:   make(chan *roomMessage, 64),
		direct:      make(chan *directMessage, 64),
		kill:        make(chan string),
	}
}

func (h *Hub) Run() {
	if h.redisClient != nil {
		h.pubsub = h.redisClient.Subscribe(context.Background())
		go h.readPubSub()
	}

	for {
		select {
		case client := <-h.register:
			h.clients[client.SID] = client
			incConnections()

		case client := <-h.unregister:
			h.dropClient(client)

		case change := <-h.join:
			client, ok := h.clients[change.sid]
			if !ok {
				continue
			}
			if h.rooms[change.room] == nil {
				h.rooms[change.room] = make(map[string]*WSClient)
				h.subscribeRoom(change.room)
			}
			h.rooms[change.room][change.sid] = client
			setRooms(len(h.rooms))

		case change := <-h.leave:
			h.removeFromRoom(change.sid, change.room)

		case message := <-h.broadcast:
			room, ok := h.rooms[message.room]
			if !ok {
				continue
			}
			delivered := 0
			for _, client := range room {
				select {
				case client.Message <- message.msg:
					delivered++
				default:
					// Slow consumer, sweep it like any other dead socket.
					h.dropClient(client)
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}

		case message := <-h.direct:
			client, ok := h.clients[message.sid]
			if !ok {
				continue
			}
			select {
			case client.Message <- message.msg:
				addDelivered(1)
			default:
				h.dropClient(client)
			}

		case sid := <-h.kill:
			if client, ok := h.clients[sid]; ok {
				h.dropClient(client)
			}
		}
	}
}

// dropClient runs on the Run goroutine only. It removes the client from the
// registry and every room and closes its Message channel; the write pump
// drains what is buffered and closes the connection itself, so Run never
// blocks on a client's write lock.
func (h *Hub) dropClient(cl *WSClient) {
	if _, ok := h.clients[cl.SID]; !ok {
		return
	}
	delete(h.clients, cl.SID)
	for room := range h.rooms {
		h.removeFromRoom(cl.SID, room)
	}
	close(cl.Message)
	decConnections()
}

// removeFromRoom runs on the Run goroutine only.
func (h *Hub) removeFromRoom(sid, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(h.rooms, room)
		h.unsubscribeRoom(room)
	}
	setRooms(len(h.rooms))
}

// JoinRoom, LeaveRoom, EmitToConn, EmitToRoom and Disconnect implement the
// gateway's Transport interface.

func (h *Hub) JoinRoom(sid, room string) {
	h.join <- roomChange{sid: sid, room: room}
}

func (h *Hub) LeaveRoom(sid, room string) {
	h.leave <- roomChange{sid: sid, room: room}
}

func (h *Hub) EmitToConn(sid, event string, data interface{}) {
	h.direct <- &directMessage{sid: sid, msg: &WSMessage{Event: event, Data: data}}
}

func (h *Hub) EmitToRoom(room, event string, data interface{}) {
	if h.redisClient != nil {
		err := h.publish(room, event, data)
		if err == nil {
			return
		}
		log.Printf("Error publishing to room channel %s: %v", room, err)
	}
	h.broadcast <- &roomMessage{room: room, msg: &WSMessage{Event: event, Data: data}}
}

func (h *Hub) Disconnect(sid string) {
	h.kill <- sid
}

func (h *Hub) publish(room, event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope{Room: room, Event: event, Data: raw})
	if err != nil {
		return err
	}
	return h.redisClient.Publish(context.Background(), roomChannel(room), string(payload)).Err()
}

func (h *Hub) subscribeRoom(room string) {
	if h.pubsub == nil {
		return
	}
	if err := h.pubsub.Subscribe(context.Background(), roomChannel(room)); err != nil {
		log.Printf("Error subscribing to room channel %s: %v", room, err)
	}
}

func (h *Hub) unsubscribeRoom(room string) {
	if h.pubsub == nil {
		return
	}
	if err := h.pubsub.Unsubscribe(context.Background(), roomChannel(room)); err != nil {
		log.Printf("Error unsubscribing from room channel %s: %v", room, err)
	}
}

func (h *Hub) readPubSub() {
	for msg := range h.pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.Printf("Bad envelope on channel %s: %v", msg.Channel, err)
			continue
		}
		h.broadcast <- &roomMessage{
			room: env.Room,
			msg:  &WSMessage{Event: env.Event, Data: env.Data},
		}
	}
}

func roomChannel(room string) string {
	return "ws:room:" + room
}
