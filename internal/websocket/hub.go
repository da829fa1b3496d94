package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// GlobalTopic is the topic whose subscribers receive activity for every post.
const GlobalTopic = "global"

const publishBuffer = 256

type envelope struct {
	topic string
	data  []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and fans post activity out to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// A map of topics (post IDs or GlobalTopic) to the clients subscribed to it.
	subscriptions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	publish    chan envelope
	direct     chan directMessage

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan envelope, publishBuffer),
		direct:        make(chan directMessage),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.addSubscription(client, client.Topic)
			log.Info().Str("topic", client.Topic).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case msg := <-h.publish:
			h.deliver(msg.topic, msg.data)
			if msg.topic != GlobalTopic {
				h.deliver(GlobalTopic, msg.data)
			}
		case msg := <-h.direct:
			if h.clients[msg.client] {
				h.send(msg.client, msg.data)
			}
		case <-h.stop:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop ends Run and closes every client's send channel. It waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stop:
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// Notify publishes an activity message to the post's subscribers and to global
// subscribers. It never blocks: when the hub is backed up the message is dropped.
func (h *Hub) Notify(postID, action string, payload interface{}) {
	data, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode activity message")
		return
	}
	h.BroadcastTo(postID, data)
}

// BroadcastTo queues a raw message for the subscribers of topic and for global subscribers.
func (h *Hub) BroadcastTo(topic string, message []byte) {
	select {
	case h.publish <- envelope{topic: topic, data: message}:
	default:
		log.Warn().Str("topic", topic).Msg("Activity hub backed up, dropping message")
	}
}

// sendTo queues a message for one registered client.
func (h *Hub) sendTo(client *Client, message []byte) {
	select {
	case h.direct <- directMessage{client: client, data: message}:
	case <-h.stop:
	}
}

func (h *Hub) deliver(topic string, message []byte) {
	for client := range h.subscriptions[topic] {
		h.send(client, message)
	}
}

// send drops clients that are not keeping up instead of blocking the hub.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		log.Warn().Str("topic", client.Topic).Msg("Slow websocket client, disconnecting")
		h.drop(client)
	}
}

// drop forgets client and closes its send channel exactly once.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.removeSubscription(client)
	close(client.Send)
}

func (h *Hub) addSubscription(client *Client, topic string) {
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[*Client]bool)
	}
	h.subscriptions[topic][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	subs, ok := h.subscriptions[client.Topic]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, client.Topic)
	}
}
