// Package service contains the application's business logic.
package service

import (
	"context"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// PostService coordinates post business rules on top of the repositories.
type PostService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	locationRepo repository.LocationRepository
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Text        string
	PubDate     time.Time
	CategoryID  *uint
	LocationID  *uint
	ImageURL    string
	IsPublished *bool
}

type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Title       string
	Text        string
	PubDate     *time.Time
	CategoryID  *uint
	LocationID  *uint
	ImageURL    *string
	IsPublished *bool
}

type ListPostsInput struct {
	Limit  int
	Offset int
}

func NewPostService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	locationRepo repository.LocationRepository,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		locationRepo: locationRepo,
	}
}

const (
	maxTitleLen = 256
	maxTextLen  = 50000
)

func validatePostFields(title, text string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 256 characters)")
	}
	if strings.TrimSpace(text) == "" {
		return models.NewValidationError("Text is required")
	}
	if len(text) > maxTextLen {
		return models.NewValidationError("Text too long (max 50000 characters)")
	}
	return nil
}

// CreatePost stores a new post for the author. A future PubDate schedules the
// post: it stays invisible to everyone but the author until the date passes.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validatePostFields(in.Title, in.Text); err != nil {
		return nil, err
	}

	pubDate := in.PubDate
	if pubDate.IsZero() {
		pubDate = time.Now().UTC()
	}

	isPublished := true
	if in.IsPublished != nil {
		isPublished = *in.IsPublished
	}

	post := &models.Post{
		Title:       in.Title,
		Text:        in.Text,
		PubDate:     pubDate,
		UserID:      in.UserID,
		CategoryID:  in.CategoryID,
		LocationID:  in.LocationID,
		ImageURL:    in.ImageURL,
		IsPublished: isPublished,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// GetPost returns a post if the requester may see it. Authors always see
// their own posts; everyone else only sees publicly visible ones. Hidden
// posts are reported as missing, not forbidden.
func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, currentUserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != currentUserID && !post.PubliclyVisibleAt(time.Now().UTC()) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

type PostPage struct {
	Posts []*models.Post `json:"posts"`
	Total int64          `json:"total"`
}

func (s *PostService) ListFeed(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	posts, err := s.postRepo.ListPublished(ctx, in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}
	total, err := s.postRepo.CountPublished(ctx)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Total: total}, nil
}

// ListByCategory resolves the category by slug first; an unpublished or
// unknown slug is a 404 regardless of who asks.
func (s *PostService) ListByCategory(ctx context.Context, slug string, in ListPostsInput) (*models.Category, *PostPage, error) {
	category, err := s.categoryRepo.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.postRepo.ListByCategory(ctx, category.ID, in.Limit, in.Offset)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.postRepo.CountByCategory(ctx, category.ID)
	if err != nil {
		return nil, nil, err
	}
	return category, &PostPage{Posts: posts, Total: total}, nil
}

// ListByAuthor powers profile pages. Owners get their full history including
// drafts and scheduled posts; visitors get the public subset.
func (s *PostService) ListByAuthor(ctx context.Context, authorID, currentUserID uint, in ListPostsInput) (*PostPage, error) {
	publishedOnly := authorID != currentUserID
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, publishedOnly, in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}
	total, err := s.postRepo.CountByAuthor(ctx, authorID, publishedOnly)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Total: total}, nil
}

// UpdatePost applies partial changes after an ownership check.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}

	if in.Title != "" {
		post.Title = in.Title
	}
	if in.Text != "" {
		post.Text = in.Text
	}
	if err := validatePostFields(post.Title, post.Text); err != nil {
		return nil, err
	}
	if in.PubDate != nil {
		post.PubDate = *in.PubDate
	}
	if in.CategoryID != nil {
		post.CategoryID = in.CategoryID
	}
	if in.LocationID != nil {
		post.LocationID = in.LocationID
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	if in.IsPublished != nil {
		post.IsPublished = *in.IsPublished
	}

	// Save only column fields so stale preloaded associations don't get upserted.
	post.User = models.User{}
	post.Category = nil
	post.Location = nil

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// DeletePost removes a post after an ownership check; its comments cascade.
func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("Only the author can delete this post")
	}
	return s.postRepo.Delete(ctx, postID)
}

func (s *PostService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.categoryRepo.ListPublished(ctx)
}

func (s *PostService) ListLocations(ctx context.Context) ([]*models.Location, error) {
	return s.locationRepo.ListPublished(ctx)
}
