package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDSet_AddRemove(t *testing.T) {
	var s IDSet

	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.False(t, s.Add("a"))
	assert.Equal(t, IDSet{"a", "b"}, s)
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.False(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
	assert.Equal(t, IDSet{"b"}, s)
}

func TestIDSet_RemoveDoesNotAliasCopies(t *testing.T) {
	original := IDSet{"a", "b", "c"}
	snapshot := original
	original.Remove("a")

	assert.Equal(t, IDSet{"b", "c"}, original)
	assert.Equal(t, IDSet{"a", "b", "c"}, snapshot)
}

func TestIDSet_MarshalNilAsEmptyArray(t *testing.T) {
	data, err := json.Marshal(struct {
		Likes IDSet `json:"likes"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"likes":[]}`, string(data))
}

func TestPost_MarshalJSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	author := Account{ID: "acc-1", FirstName: "Grace", LastName: "Hopper", Bio: "COBOL", Email: "grace@navy.mil"}
	post := Post{
		ID:     "post-1",
		Title:  "Bugs",
		Author: author.Snapshot(at),
		Likes:  IDSet{"acc-2", "acc-3"},
	}

	data, err := json.Marshal(post)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(2), got["likeCount"])
	assert.Equal(t, []interface{}{}, got["tags"])
	assert.Equal(t, []interface{}{}, got["comments"])
	assert.Equal(t, []interface{}{}, got["favouritedBy"])
	assert.Equal(t, map[string]interface{}{
		"id":         "acc-1",
		"firstName":  "Grace",
		"lastName":   "Hopper",
		"bio":        "COBOL",
		"snapshotAt": "2024-03-01T10:00:00Z",
	}, got["author"])

	var decoded Post
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, post.Likes, decoded.Likes)
	assert.Equal(t, post.Author, decoded.Author)
}

func TestAccount_NeverSerializesPasswordHash(t *testing.T) {
	data, err := json.Marshal(Account{ID: "acc-1", Email: "a@b.dev", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
	assert.NotContains(t, string(data), "passwordHash")
}

func TestPostPatch_IsEmpty(t *testing.T) {
	assert.True(t, PostPatch{}.IsEmpty())

	title := "t"
	assert.False(t, PostPatch{Title: &title}.IsEmpty())

	var patch PostPatch
	require.NoError(t, json.Unmarshal([]byte(`{"tags":[]}`), &patch))
	assert.False(t, patch.IsEmpty())
	require.NotNil(t, patch.Tags)
	assert.Empty(t, *patch.Tags)
}
