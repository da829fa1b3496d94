package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/techinsight/techinsight-be/internal/clock"
	"github.com/techinsight/techinsight-be/internal/repository/sqlite"
	"golang.org/x/crypto/bcrypt"
)

var testStart = time.Date(2024, time.May, 1, 12, 0, 0, 123456789, time.UTC)

type notification struct {
	postID  string
	action  string
	payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Notify(postID, action string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{postID: postID, action: action, payload: payload})
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	actions := make([]string, len(n.events))
	for i, e := range n.events {
		actions[i] = e.action
	}
	return actions
}

func (n *recordingNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

type testEnv struct {
	accounts *AccountService
	posts    *PostService
	clock    *clock.Stub
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	clk := clock.NewStub(testStart)
	notifier := &recordingNotifier{}
	return &testEnv{
		accounts: NewAccountService(store, bcrypt.MinCost, clk),
		posts:    NewPostService(store, clk, notifier),
		clock:    clk,
		notifier: notifier,
	}
}
