package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHub_NotifyRoutesByTopic(t *testing.T) {
	hub := startHub(t)

	global := NewClient(hub, nil, "")
	post := NewClient(hub, nil, "post-1")
	other := NewClient(hub, nil, "post-2")
	hub.Register(global)
	hub.Register(post)
	hub.Register(other)

	hub.Notify("post-1", "post.liked", map[string]int{"likeCount": 1})

	msg := receive(t, post)
	assert.Equal(t, "post.liked", msg.Action)
	assert.Equal(t, map[string]interface{}{"likeCount": float64(1)}, msg.Payload)
	assert.Equal(t, "post.liked", receive(t, global).Action)

	hub.Notify("post-2", "post.deleted", nil)
	assert.Equal(t, "post.deleted", receive(t, other).Action)
	assert.Equal(t, "post.deleted", receive(t, global).Action)
}

func TestHub_GlobalNotificationDeliveredOnce(t *testing.T) {
	hub := startHub(t)
	global := NewClient(hub, nil, GlobalTopic)
	hub.Register(global)

	hub.Notify(GlobalTopic, "first", nil)
	hub.Notify("post-9", "second", nil)

	assert.Equal(t, "first", receive(t, global).Action)
	assert.Equal(t, "second", receive(t, global).Action)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, nil, "post-1")
	hub.Register(client)
	hub.Unregister(client)

	_, ok := <-client.Send
	assert.False(t, ok)

	// A second unregister must not close the channel again.
	hub.Unregister(client)
	hub.Notify("post-1", "post.updated", nil)
}

func TestHub_ReplyReachesOnlyThatClient(t *testing.T) {
	hub := startHub(t)
	a := NewClient(hub, nil, "")
	b := NewClient(hub, nil, "")
	hub.Register(a)
	hub.Register(b)

	a.Reply(NewMessage(ActionPong, nil))
	hub.Notify("post-1", "post.created", nil)

	assert.Equal(t, ActionPong, receive(t, a).Action)
	assert.Equal(t, "post.created", receive(t, a).Action)
	assert.Equal(t, "post.created", receive(t, b).Action)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := NewClient(hub, nil, "post-1")
	hub.Register(slow)

	for i := 0; i < sendBuffer+1; i++ {
		slow.Reply(NewMessage(ActionPong, i))
	}

	closed := false
	deadline := time.After(2 * time.Second)
	for !closed {
		select {
		case _, ok := <-slow.Send:
			closed = !ok
		case <-deadline:
			t.Fatal("slow client was not dropped")
		}
	}
}

func TestHub_NotifyNeverBlocks(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < publishBuffer*2; i++ {
			hub.Notify("post-1", "post.liked", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked without a running hub")
	}
}

func TestHub_StopClosesClientsAndIgnoresLateRegistrations(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	client := NewClient(hub, nil, "")
	hub.Register(client)

	hub.Stop()
	_, ok := <-client.Send
	assert.False(t, ok)

	hub.Register(NewClient(hub, nil, ""))
	hub.Unregister(client)
	hub.Stop()
}

func TestNewErrorMessage(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal(NewErrorMessage("boom"), &msg))
	assert.Equal(t, ActionError, msg.Action)
	assert.Equal(t, map[string]interface{}{"message": "boom"}, msg.Payload)
}
