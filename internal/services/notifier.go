package services

import "github.com/techinsight/techinsight-be/internal/models"

// Activity actions published when posts change.
const (
	ActionPostCreated      = "post.created"
	ActionPostUpdated      = "post.updated"
	ActionPostDeleted      = "post.deleted"
	ActionPostLiked        = "post.liked"
	ActionPostUnliked      = "post.unliked"
	ActionPostCommented    = "post.commented"
	ActionPostFavourited   = "post.favourited"
	ActionPostUnfavourited = "post.unfavourited"
)

// Notifier receives post activity after it has been persisted.
// Implementations must not block the caller.
type Notifier interface {
	Notify(postID, action string, payload interface{})
}

// NopNotifier discards all activity.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string, string, interface{}) {}

// LikeEvent is the payload of like and unlike activity.
type LikeEvent struct {
	PostID    string `json:"postId"`
	AccountID string `json:"accountId"`
	LikeCount int    `json:"likeCount"`
}

// FavouriteEvent is the payload of favourite activity.
type FavouriteEvent struct {
	PostID      string `json:"postId"`
	AccountID   string `json:"accountId"`
	IsFavourite bool   `json:"isFavourite"`
}

// CommentEvent is the payload of comment activity.
type CommentEvent struct {
	PostID  string         `json:"postId"`
	Comment models.Comment `json:"comment"`
}

// DeleteEvent is the payload of delete activity.
type DeleteEvent struct {
	PostID string `json:"postId"`
}
