package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/mailer"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// CommentService coordinates comment business rules and author notification.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	mailer      mailer.Mailer
	baseURL     string
}

type CreateCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	PostID    uint
	Text      string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
	PostID    uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	m mailer.Mailer,
	baseURL string,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		mailer:      m,
		baseURL:     baseURL,
	}
}

const maxCommentLen = 10000

// CreateComment stores a comment on a visible post and notifies the post's
// author. Notification is best-effort: one delivery attempt, failures are
// logged and never surfaced to the commenter.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID && !post.PubliclyVisibleAt(time.Now().UTC()) {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		Text:   in.Text,
		UserID: in.UserID,
		PostID: in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		s.notifyAuthor(ctx, post, comment)
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// notifyAuthor emails the post author about a new comment. Exactly one
// attempt; the comment is already committed, so the outcome only affects
// logs and metrics.
func (s *CommentService) notifyAuthor(ctx context.Context, post *models.Post, comment *models.Comment) {
	author, err := s.userRepo.GetByID(ctx, post.UserID)
	if err != nil {
		middleware.NotificationAttempts.WithLabelValues("failure").Inc()
		middleware.Logger.WarnContext(ctx, "comment notification skipped: author lookup failed",
			slog.Uint64("post_id", uint64(post.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	subject := fmt.Sprintf("New comment on %q", post.Title)
	body := fmt.Sprintf(
		"Your post %q received a new comment:\n\n%s\n\nView it at %s/posts/%d",
		post.Title, comment.Text, s.baseURL, post.ID,
	)

	if err := s.mailer.Send(ctx, author.Email, subject, body); err != nil {
		middleware.NotificationAttempts.WithLabelValues("failure").Inc()
		middleware.Logger.WarnContext(ctx, "comment notification failed",
			slog.Uint64("post_id", uint64(post.ID)),
			slog.Uint64("comment_id", uint64(comment.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	middleware.NotificationAttempts.WithLabelValues("success").Inc()
}

// UpdateComment edits a comment's text after an ownership check. The PostID
// in the input must match the comment's post so stale links 404.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != in.PostID {
		return nil, models.NewNotFoundError("Comment", in.CommentID)
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the author can edit this comment")
	}

	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment.Text = in.Text
	comment.User = models.User{}
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.PostID != in.PostID {
		return models.NewNotFoundError("Comment", in.CommentID)
	}
	if comment.UserID != in.UserID {
		return models.NewForbiddenError("Only the author can delete this comment")
	}
	return s.commentRepo.Delete(ctx, in.CommentID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}
