package server

import (
	"time"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /, the public feed of published posts.
func (s *Server) Index(c *fiber.Ctx) error {
	p := parsePage(c)
	page, err := s.postService.ListFeed(c.Context(), service.ListPostsInput{
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}

	return c.JSON(fiber.Map{
		"posts":       page.Posts,
		"page":        p.Page,
		"total":       page.Total,
		"total_pages": totalPages(page.Total),
	})
}

// CategoryPosts handles GET /category/:slug
func (s *Server) CategoryPosts(c *fiber.Ctx) error {
	slug := c.Params("slug")
	p := parsePage(c)

	category, page, err := s.postService.ListByCategory(c.Context(), slug, service.ListPostsInput{
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}

	return c.JSON(fiber.Map{
		"category":    category,
		"posts":       page.Posts,
		"page":        p.Page,
		"total":       page.Total,
		"total_pages": totalPages(page.Total),
	})
}

// Profile handles GET /profile/:username with the profile owner's posts.
// Owners see their full history including drafts and scheduled posts.
func (s *Server) Profile(c *fiber.Ctx) error {
	username := c.Params("username")
	currentID := s.optionalUserID(c)

	user, err := s.userService.GetByUsername(c.Context(), username)
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}

	p := parsePage(c)
	page, err := s.postService.ListByAuthor(c.Context(), user.ID, currentID, service.ListPostsInput{
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}

	return c.JSON(fiber.Map{
		"profile":     user,
		"posts":       page.Posts,
		"page":        p.Page,
		"total":       page.Total,
		"total_pages": totalPages(page.Total),
	})
}

// PostDetail handles GET /posts/:id, returning the post with its comment thread.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	currentID := s.optionalUserID(c)

	post, err := s.postService.GetPost(c.Context(), postID, currentID)
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}

	comments, err := s.commentService.ListComments(c.Context(), postID)
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}

	return c.JSON(fiber.Map{
		"post":     post,
		"comments": comments,
	})
}

type postRequest struct {
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	PubDate     *time.Time `json:"pub_date"`
	CategoryID  *uint      `json:"category_id"`
	LocationID  *uint      `json:"location_id"`
	ImageURL    *string    `json:"image_url"`
	IsPublished *bool      `json:"is_published"`
}

// CreatePost handles POST /posts/create
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.CreatePostInput{
		UserID:      currentUserID(c),
		Title:       req.Title,
		Text:        req.Text,
		CategoryID:  req.CategoryID,
		LocationID:  req.LocationID,
		IsPublished: req.IsPublished,
	}
	if req.PubDate != nil {
		in.PubDate = *req.PubDate
	}
	if req.ImageURL != nil {
		in.ImageURL = *req.ImageURL
	}

	post, err := s.postService.CreatePost(c.Context(), in)
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /posts/:id/edit. A non-owner is bounced back to the
// post page instead of receiving an error.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:      currentUserID(c),
		PostID:      postID,
		Title:       req.Title,
		Text:        req.Text,
		PubDate:     req.PubDate,
		CategoryID:  req.CategoryID,
		LocationID:  req.LocationID,
		ImageURL:    req.ImageURL,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		return s.respondDomainError(c, err, postID)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /posts/:id/delete
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), postID, currentUserID(c)); err != nil {
		return s.respondDomainError(c, err, postID)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCategories handles GET /categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.postService.ListCategories(c.Context())
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}
	return c.JSON(fiber.Map{"categories": categories})
}
