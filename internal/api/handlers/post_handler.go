package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/services"
)

// PostHandler handles HTTP requests for posts and their engagement.
type PostHandler struct {
	service services.PostServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider) *PostHandler {
	return &PostHandler{service: service}
}

// LikePayload is the body of a like request. Like is required.
type LikePayload struct {
	UserID string `json:"userId"`
	Like   *bool  `json:"like"`
}

// LikeResponse reports a post's like count after a like request.
type LikeResponse struct {
	PostID    string `json:"postId"`
	LikeCount int    `json:"likeCount"`
}

// CommentPayload is the body of a comment request.
type CommentPayload struct {
	UserID  string `json:"userId"`
	Comment string `json:"comment"`
}

// FavouritePayload is the body of a favourite request. IsFavourite is required.
type FavouritePayload struct {
	UserID      string `json:"userId"`
	IsFavourite *bool  `json:"isFavourite"`
}

// Create handles new post creation.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload services.CreatePostInput
	if err := decode(r, &payload); err != nil {
		fail(w, r, err, "Invalid request body")
		return
	}

	post, err := h.service.CreatePost(r.Context(), payload)
	if err != nil {
		fail(w, r, err, "Failed to create post")
		return
	}
	respond(w, r, http.StatusCreated, post)
}

// GetAll lists every post, newest first.
func (h *PostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		fail(w, r, err, "Failed to retrieve posts")
		return
	}
	respond(w, r, http.StatusOK, posts)
}

// Get returns a single post.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err, "Failed to retrieve post")
		return
	}
	respond(w, r, http.StatusOK, post)
}

// Update applies a partial update to a post.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.PostPatch
	if err := decode(r, &patch); err != nil {
		fail(w, r, err, "Invalid request body")
		return
	}

	post, err := h.service.UpdatePost(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		fail(w, r, err, "Failed to update post")
		return
	}
	respond(w, r, http.StatusOK, post)
}

// Delete removes a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := h.service.DeletePost(r.Context(), id); err != nil {
		fail(w, r, err, "Failed to delete post")
		return
	}
	respond(w, r, http.StatusOK, MessageResponse{Message: "Post deleted successfully", ID: id})
}

// Like adds or removes the caller's like.
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	var payload LikePayload
	if err := decode(r, &payload); err != nil {
		fail(w, r, err, "Invalid request body")
		return
	}
	if payload.Like == nil {
		fail(w, r, fmt.Errorf("%w: like must be a boolean", services.ErrInvalidParameter), "Invalid like request")
		return
	}

	id := pathID(r)
	count, err := h.service.SetLike(r.Context(), id, payload.UserID, *payload.Like)
	if err != nil {
		fail(w, r, err, "Failed to update like")
		return
	}
	respond(w, r, http.StatusOK, LikeResponse{PostID: id, LikeCount: count})
}

// Comment appends a comment to a post.
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var payload CommentPayload
	if err := decode(r, &payload); err != nil {
		fail(w, r, err, "Invalid request body")
		return
	}

	post, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"), payload.UserID, payload.Comment)
	if err != nil {
		fail(w, r, err, "Failed to add comment")
		return
	}
	respond(w, r, http.StatusOK, post)
}

// Favourite sets or clears the post's favourite flag.
func (h *PostHandler) Favourite(w http.ResponseWriter, r *http.Request) {
	var payload FavouritePayload
	if err := decode(r, &payload); err != nil {
		fail(w, r, err, "Invalid request body")
		return
	}
	if payload.IsFavourite == nil {
		fail(w, r, fmt.Errorf("%w: isFavourite must be a boolean", services.ErrInvalidParameter), "Invalid favourite request")
		return
	}

	post, err := h.service.SetFavourite(r.Context(), chi.URLParam(r, "id"), payload.UserID, *payload.IsFavourite)
	if err != nil {
		fail(w, r, err, "Failed to update favourite")
		return
	}
	respond(w, r, http.StatusOK, post)
}

// Search finds posts by title or tag.
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.SearchPosts(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		fail(w, r, err, "Failed to search posts")
		return
	}
	respond(w, r, http.StatusOK, posts)
}
