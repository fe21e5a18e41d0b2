package server

import (
	"murmur/internal/service"
	"murmur/models"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest is the body of POST /api/posts/comment/:id.
type CommentRequest struct {
	Text string `json:"text"`
}

// GetAllPosts handles GET /api/posts/all
// @Summary List posts
// @Description Returns every post, newest first
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /posts/all [get]
func (s *Server) GetAllPosts(c *fiber.Ctx) error {
	posts, err := s.postService.All(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetFollowingPosts handles GET /api/posts/following
// @Summary Following feed
// @Description Returns posts by users the caller follows, newest first
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /posts/following [get]
func (s *Server) GetFollowingPosts(c *fiber.Ctx) error {
	posts, err := s.postService.Following(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetLikedPosts handles GET /api/posts/likes/:id, where :id is the user
// whose likes are listed.
// @Summary Liked posts
// @Description Returns the posts a user has liked
// @Tags posts
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /posts/likes/{id} [get]
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	posts, err := s.postService.LikedBy(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts handles GET /api/posts/user/:username
// @Summary Posts by user
// @Description Returns the posts written by a user, newest first
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /posts/user/{username} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts/create
// @Summary Create post
// @Description Creates a post with text, an image, or both. img is a base64 data URI
// @Tags posts
// @Accept json
// @Produce json
// @Param request body service.CreatePostInput true "Post content"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /posts/create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := s.parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	req.UserID = currentUserID(c)

	post, err := s.postService.Create(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// LikeUnlikePost handles POST /api/posts/like/:id
// @Summary Like or unlike post
// @Description Toggles the caller's like on a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /posts/like/{id} [post]
func (s *Server) LikeUnlikePost(c *fiber.Ctx) error {
	msg, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MessageResponse{Message: msg})
}

// CommentOnPost handles POST /api/posts/comment/:id
// @Summary Comment on post
// @Description Appends a comment to a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /posts/comment/{id} [post]
func (s *Server) CommentOnPost(c *fiber.Ctx) error {
	var req CommentRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	comment, err := s.postService.Comment(c.UserContext(), currentUserID(c), c.Params("id"), req.Text)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comment)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Deletes a post the caller owns and its hosted image
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.postService.Delete(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MessageResponse{Message: "Post deleted successfully"})
}
