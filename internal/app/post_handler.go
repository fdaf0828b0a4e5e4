package app

import (
	"encoding/json"
	"net/http"

	"socialfeed/internal/service"
	"socialfeed/internal/util"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postService      service.PostService
	cloudinaryClient *util.CloudinaryClient
}

func NewPostHandler(postService service.PostService, cloudinaryClient *util.CloudinaryClient) *PostHandler {
	return &PostHandler{
		postService:      postService,
		cloudinaryClient: cloudinaryClient,
	}
}

// CreatePost handles post creation without images
// POST /api/v1/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req service.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	post, err := h.postService.CreatePost(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Post created successfully", gin.H{"post": post})
}

// CreatePostWithImages handles multipart post creation with image upload
// POST /api/v1/posts/upload
func (h *PostHandler) CreatePostWithImages(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	if h.cloudinaryClient == nil {
		util.ErrorResponse(c, http.StatusServiceUnavailable, "Image uploads are disabled", nil)
		return
	}

	text := c.PostForm("text")
	if text == "" {
		util.BadRequest(c, "Text is required")
		return
	}

	req := service.CreatePostRequest{Text: text}
	if location := c.PostForm("location"); location != "" {
		req.Location = &location
	}
	if hashtags := c.PostForm("hashtags"); hashtags != "" {
		if err := json.Unmarshal([]byte(hashtags), &req.Hashtags); err != nil {
			util.BadRequest(c, "Invalid hashtags format, expected a JSON array")
			return
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		util.BadRequest(c, "Invalid multipart form")
		return
	}

	var files []util.FileData
	for _, fileHeader := range form.File["images"] {
		file, err := fileHeader.Open()
		if err != nil {
			util.BadRequest(c, "Failed to read uploaded file")
			return
		}
		fileData, err := util.ReadFileFromReader(file, fileHeader.Filename)
		file.Close()
		if err != nil {
			util.BadRequest(c, "Failed to read uploaded file")
			return
		}
		files = append(files, *fileData)
	}

	if len(files) > 0 {
		imageURLs, err := h.cloudinaryClient.ProcessMultipleFiles(files)
		if err != nil {
			util.ErrorResponse(c, http.StatusBadGateway, "Image upload failed", nil)
			return
		}
		req.ImageURLs = imageURLs
	}

	post, err := h.postService.CreatePost(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Post created successfully", gin.H{"post": post})
}

// GetPost handles getting a post by ID
// GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	post, err := h.postService.GetPost(postID, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Post retrieved successfully", gin.H{"post": post})
}

// GetPosts handles the cursor-paginated feed, newest first
// GET /api/v1/posts
func (h *PostHandler) GetPosts(c *gin.Context) {
	cursor := c.Query("cursor")
	limit := parseLimit(c, 20)

	page, err := h.postService.GetPosts(cursor, limit, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Posts retrieved successfully", page)
}

// GetTrendingPosts handles the engagement-ranked feed
// GET /api/v1/posts/trending
func (h *PostHandler) GetTrendingPosts(c *gin.Context) {
	limit := parseLimit(c, 20)

	posts, err := h.postService.GetTrendingPosts(limit, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Trending posts retrieved successfully", gin.H{"posts": posts})
}

// UpdatePost handles editing a post
// PUT /api/v1/posts/:id
func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	post, err := h.postService.UpdatePost(postID, userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Post updated successfully", gin.H{"post": post})
}

// DeletePost handles post deletion
// DELETE /api/v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.postService.DeletePost(postID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Post deleted successfully", nil)
}
