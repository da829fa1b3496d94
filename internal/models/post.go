package models

import (
	"encoding/json"
	"time"
)

// Post represents a blog entry with its embedded engagement data.
type Post struct {
	ID           string         `json:"id" bson:"_id"`
	Title        string         `json:"title" bson:"title"`
	Content      string         `json:"content" bson:"content"`
	Thumbnail    string         `json:"thumbnail" bson:"thumbnail"`
	Author       AuthorSnapshot `json:"author" bson:"author"`
	Tags         []string       `json:"tags" bson:"tags"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
	IsFavourite  bool           `json:"isFavourite" bson:"isFavourite"`
	FavouritedBy IDSet          `json:"favouritedBy" bson:"favouritedBy"`
	Likes        IDSet          `json:"likes" bson:"likes"`
	Comments     []Comment      `json:"comments" bson:"comments"`
}

// Comment is a single comment on a post. Author is captured when the comment is written.
type Comment struct {
	ID        string         `json:"id" bson:"id"`
	Author    AuthorSnapshot `json:"author" bson:"author"`
	Text      string         `json:"text" bson:"text"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}

// LikeCount returns the number of accounts that like the post.
func (p Post) LikeCount() int {
	return p.Likes.Len()
}

// Normalize replaces nil collections with empty ones so they persist and
// serialize as empty arrays instead of null.
func (p *Post) Normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.FavouritedBy == nil {
		p.FavouritedBy = IDSet{}
	}
	if p.Likes == nil {
		p.Likes = IDSet{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

// MarshalJSON adds the derived likeCount field to the API representation.
func (p Post) MarshalJSON() ([]byte, error) {
	type post Post
	p.Normalize()
	return json.Marshal(struct {
		post
		LikeCount int `json:"likeCount"`
	}{post(p), p.LikeCount()})
}

// PostPatch holds the fields of a partial post update. Nil means "leave unchanged".
type PostPatch struct {
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	Thumbnail   *string   `json:"thumbnail"`
	Tags        *[]string `json:"tags"`
	IsFavourite *bool     `json:"isFavourite"`
}

// IsEmpty reports whether the patch changes nothing.
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Thumbnail == nil && p.Tags == nil && p.IsFavourite == nil
}
