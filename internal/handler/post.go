package handler

import (
	"net/http"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/service"
)

// PostHandler serves post, feed and like/share requests.
type PostHandler struct {
	responder
	posts      *service.PostService
	feed       *service.FeedService
	engagement *service.EngagementService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts *service.PostService, feed *service.FeedService, engagement *service.EngagementService, debug bool) *PostHandler {
	return &PostHandler{
		responder:  responder{debug: debug},
		posts:      posts,
		feed:       feed,
		engagement: engagement,
	}
}

type createPostRequest struct {
	Content string   `json:"content" validate:"required"`
	Media   []string `json:"media" validate:"max=5,dive,url"`
}

// HandleCreatePost publishes a post.
// POST /posts
// Request:  {"content":"...","media":["https://..."]}
// Response: {"post": {...}}
func (h *PostHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if err := readJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	post, err := h.posts.CreatePost(r.Context(), caller, req.Content, req.Media)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Post created successfully", map[string]any{"post": toPostDTO(post)})
}

// HandleDeletePost removes one of the caller's posts.
// DELETE /posts/{postId}
func (h *PostHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	report, err := h.posts.DeletePost(r.Context(), caller, r.PathValue("postId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	msg := "Post deleted successfully"
	if len(report.Leaked) > 0 {
		msg = "Post deleted; some media could not be removed"
	}
	writeSuccess(w, http.StatusOK, msg, map[string]any{})
}

// HandleFeed lists posts, optionally restricted to followed authors and
// ranked by likes or shares.
// GET /posts?onlyFollowing=&mostLiked=&mostShared=&limit=&offset=
// Response: {"posts": [...]}
func (h *PostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	filter, err := parseFeedFilter(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items, err := h.feed.Feed(r.Context(), caller, filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Posts retrieved successfully", map[string]any{"posts": toFeedItemDTOs(items)})
}

func parseFeedFilter(r *http.Request) (domain.FeedFilter, error) {
	var (
		f   domain.FeedFilter
		err error
	)
	if f.OnlyFollowing, err = queryBool(r, "onlyFollowing"); err != nil {
		return f, err
	}
	if f.MostLiked, err = queryBool(r, "mostLiked"); err != nil {
		return f, err
	}
	if f.MostShared, err = queryBool(r, "mostShared"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// HandleToggleLike likes or unlikes a post.
// POST /posts/{postId}/like
// Response: {"state": "liked"|"unliked"}
func (h *PostHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	state, err := h.engagement.ToggleLike(r.Context(), caller, r.PathValue("postId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	msg := "Post liked successfully"
	if state == service.StateUnliked {
		msg = "Post unliked successfully"
	}
	writeSuccess(w, http.StatusOK, msg, map[string]any{"state": state})
}

// HandleSharePost shares a post with optional commentary.
// POST /posts/{postId}/share
// Request:  {"shareThoughts":"..."}
// Response: {"sharedPost": {...}}
func (h *PostHandler) HandleSharePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	var req struct {
		ShareThoughts string `json:"shareThoughts"`
	}
	if err := readJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	shared, err := h.engagement.SharePost(r.Context(), caller, r.PathValue("postId"), req.ShareThoughts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Post shared successfully", map[string]any{"sharedPost": toPostDTO(shared)})
}
