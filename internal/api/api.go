// Package api exposes a Store over HTTP with gin.
//
// The requester is taken from the X-Requester-ID header. Visibility and
// ownership rules are enforced by the Store, not here.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/search"
	"github.com/mskvii/bot2-2/storage"
)

// RequesterHeader carries the id of the user making the request.
const RequesterHeader = "X-Requester-ID"

var errMissingRequester = errors.New("missing " + RequesterHeader + " header")

// Handler serves the thoughts API.
type Handler struct {
	Store  Store
	Logger *slog.Logger
}

// NewHandler returns a Handler over store. A nil logger means slog.Default().
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Store: store, Logger: logger}
}

// NewRouter registers every route of h on a new gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests)

	api := r.Group("/api")
	{
		api.GET("/search", h.Search)

		api.POST("/posts", h.CreatePost)
		api.GET("/posts", h.SearchPosts)
		api.GET("/posts/:id", h.GetPost)
		api.PATCH("/posts/:id", h.EditPost)
		api.DELETE("/posts/:id", h.DeletePost)

		api.GET("/posts/:id/replies", h.ListReplies)
		api.POST("/posts/:id/replies", h.CreateReply)
		api.PATCH("/replies/:id", h.EditReply)
		api.DELETE("/replies/:id", h.DeleteReply)

		api.GET("/posts/:id/likes", h.ListLikes)
		api.POST("/posts/:id/likes", h.CreateLike)
		api.DELETE("/posts/:id/likes", h.DeleteLike)
		api.PATCH("/likes/:id", h.LinkLike)

		api.GET("/posts/:id/message-ref", h.GetMessageRef)
		api.PUT("/posts/:id/message-ref", h.PutMessageRef)

		api.GET("/actions", h.ListActions)
		api.POST("/actions", h.RecordAction)
	}
	return r
}

func (h *Handler) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.Logger.Debug("request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start))
}

type createPostRequest struct {
	Content     string `json:"content"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	IsAnonymous bool   `json:"is_anonymous"`
	IsPrivate   bool   `json:"is_private"`
	DisplayName string `json:"display_name"`
	MessageID   string `json:"message_id"`
	ChannelID   string `json:"channel_id"`
}

func (h *Handler) CreatePost(c *gin.Context) {
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.Store.CreatePost(c.Request.Context(), core.PostDraft{
		AuthorID:    requester,
		Content:     req.Content,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		IsAnonymous: req.IsAnonymous,
		IsPrivate:   req.IsPrivate,
		DisplayName: req.DisplayName,
		MessageID:   req.MessageID,
		ChannelID:   req.ChannelID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) GetPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	post, err := h.Store.GetPost(c.Request.Context(), id, requesterOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type editPostRequest struct {
	Content  *string `json:"content"`
	Category *string `json:"category"`
	ImageURL *string `json:"image_url"`
}

func (h *Handler) EditPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	var req editPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := core.PostUpdate{Content: req.Content, Category: req.Category, ImageURL: req.ImageURL}
	if err := h.Store.EditPost(c.Request.Context(), id, requester, update); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	if err := h.Store.DeletePost(c.Request.Context(), id, requester); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) SearchPosts(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}
	posts, err := h.Store.SearchPosts(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) Search(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}
	results, err := h.Store.Search(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

type createReplyRequest struct {
	Content     string `json:"content"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) CreateReply(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	var req createReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.Store.CreateReply(c.Request.Context(), postID, requester, req.Content, req.DisplayName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) ListReplies(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	replies, err := h.Store.Replies(c.Request.Context(), postID, requesterOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, replies)
}

type editReplyRequest struct {
	Content *string           `json:"content"`
	Link    *core.MessageLink `json:"link"`
}

// EditReply changes the content of a reply owned by the requester and,
// when link is present, records the chat message rendering it.
func (h *Handler) EditReply(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	var req editReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Content == nil && req.Link == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	ctx := c.Request.Context()
	if req.Content != nil {
		if err := h.Store.EditReply(ctx, id, requester, *req.Content); err != nil {
			h.fail(c, err)
			return
		}
	}
	if req.Link != nil {
		if err := h.Store.LinkReplyMessage(ctx, id, requester, *req.Link); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) DeleteReply(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteReply(c.Request.Context(), id, requester); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type createLikeRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *Handler) CreateLike(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	var req createLikeRequest
	// The body is optional.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	id, err := h.Store.CreateLike(c.Request.Context(), postID, requester, req.DisplayName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) ListLikes(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	likes, err := h.Store.Likes(c.Request.Context(), postID, requesterOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

func (h *Handler) DeleteLike(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteLike(c.Request.Context(), postID, requester); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) LinkLike(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	var link core.MessageLink
	if err := c.ShouldBindJSON(&link); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.LinkLikeMessage(c.Request.Context(), id, requester, link); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type messageRefRequest struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
}

func (h *Handler) PutMessageRef(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	var req messageRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.AttachMessageRef(c.Request.Context(), postID, req.MessageID, req.ChannelID, requester); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) GetMessageRef(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	ref, err := h.Store.MessageRef(c.Request.Context(), postID, requesterOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

type actionRequest struct {
	ActionType string         `json:"action_type"`
	TargetID   string         `json:"target_id"`
	Data       map[string]any `json:"data"`
}

func (h *Handler) RecordAction(c *gin.Context) {
	requester, ok := h.requireRequester(c)
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.RecordAction(c.Request.Context(), req.ActionType, requester, req.TargetID, req.Data); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success"})
}

func (h *Handler) ListActions(c *gin.Context) {
	actions, err := h.Store.Actions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

// fail maps a Store error to a status. Unexpected errors are logged and
// answered with a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, storage.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrAlreadyLiked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case isInvalid(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
	}
}

var invalidErrors = []error{
	core.ErrInvalidPost,
	core.ErrInvalidReply,
	core.ErrInvalidLike,
	core.ErrInvalidMessageRef,
	core.ErrInvalidAction,
	core.ErrEmptyContent,
	core.ErrEmptyAuthor,
	core.ErrMissingPostID,
	search.ErrInvalidQuery,
	search.ErrUnknownKind,
}

func isInvalid(err error) bool {
	for _, target := range invalidErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func requesterOf(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(RequesterHeader))
}

func (h *Handler) requireRequester(c *gin.Context) (string, bool) {
	requester := requesterOf(c)
	if requester == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingRequester.Error()})
		return "", false
	}
	return requester, true
}

func pathID(c *gin.Context) (core.ID, bool) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// parseQuery reads a search.Query from the query string.
// Times are RFC 3339.
func parseQuery(c *gin.Context) (search.Query, bool) {
	q := search.Query{
		Kind:        core.Kind(c.Query("kind")),
		Keyword:     c.Query("keyword"),
		Category:    c.Query("category"),
		AuthorID:    c.Query("author_id"),
		RequesterID: requesterOf(c),
	}

	bad := func(field string, err error) (search.Query, bool) {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + ": " + err.Error()})
		return search.Query{}, false
	}

	if s := c.Query("anonymous"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return bad("anonymous", err)
		}
		q.Anonymous = &v
	}
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return bad("from", err)
		}
		q.From = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return bad("to", err)
		}
		q.To = t
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return bad("limit", err)
		}
		q.Limit = n
	}
	return q, true
}
