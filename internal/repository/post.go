// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*models.Post, error)
	CountPublished(ctx context.Context) (int64, error)
	ListByCategory(ctx context.Context, categoryID uint, limit, offset int) ([]*models.Post, error)
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
	ListByAuthor(ctx context.Context, userID uint, publishedOnly bool, limit, offset int) ([]*models.Post, error)
	CountByAuthor(ctx context.Context, userID uint, publishedOnly bool) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// scopeAll selects posts with author, category and location preloaded plus a
// comments_count alias, newest pub_date first. No visibility filtering.
func scopeAll(db *gorm.DB) *gorm.DB {
	return db.
		Select("posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count").
		Preload("User").
		Preload("Category").
		Preload("Location").
		Order("posts.pub_date DESC")
}

// scopePublished narrows scopeAll to posts visible to everyone: the post is
// published, not scheduled in the future, and attached to a published
// category. The INNER JOIN drops posts whose category is NULL.
func scopePublished(db *gorm.DB, now time.Time) *gorm.DB {
	return scopeAll(db).
		Joins("JOIN categories ON categories.id = posts.category_id AND categories.is_published = ?", true).
		Where("posts.is_published = ? AND posts.pub_date <= ?", true, now)
}

func scopePublishedCount(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Model(&models.Post{}).
		Joins("JOIN categories ON categories.id = posts.category_id AND categories.is_published = ?", true).
		Where("posts.is_published = ? AND posts.pub_date <= ?", true, now)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeed(ctx)
	return nil
}

// GetByID loads a single post regardless of visibility; callers decide whether
// the requester may see it. Anonymous reads go through the cache.
func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post

	fetch := func() error {
		err := scopeAll(r.db.WithContext(ctx)).First(&post, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	var err error
	if currentUserID == 0 {
		err = cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListPublished(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post

	fetch := func() error {
		err := scopePublished(r.db.WithContext(ctx), time.Now().UTC()).
			Limit(limit).
			Offset(offset).
			Find(&posts).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	// Only the first page of the feed is hot enough to cache.
	if offset == 0 {
		if err := cache.Aside(ctx, cache.FeedFirstPageKey, &posts, cache.FeedTTL, fetch); err != nil {
			return nil, err
		}
		return posts, nil
	}
	if err := fetch(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) CountPublished(ctx context.Context) (int64, error) {
	var count int64
	err := scopePublishedCount(r.db.WithContext(ctx), time.Now().UTC()).Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) ListByCategory(ctx context.Context, categoryID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := scopePublished(r.db.WithContext(ctx), time.Now().UTC()).
		Where("posts.category_id = ?", categoryID).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := scopePublishedCount(r.db.WithContext(ctx), time.Now().UTC()).
		Where("posts.category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// ListByAuthor returns an author's posts. With publishedOnly the listing is
// restricted to publicly visible posts; otherwise drafts and scheduled posts
// are included, which is what authors see on their own profile.
func (r *postRepository) ListByAuthor(ctx context.Context, userID uint, publishedOnly bool, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	q := scopeAll(r.db.WithContext(ctx))
	if publishedOnly {
		q = scopePublished(r.db.WithContext(ctx), time.Now().UTC())
	}
	err := q.
		Where("posts.user_id = ?", userID).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, userID uint, publishedOnly bool) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if publishedOnly {
		q = scopePublishedCount(r.db.WithContext(ctx), time.Now().UTC())
	}
	err := q.Where("posts.user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	cache.InvalidateFeed(ctx)
	return nil
}

// Delete removes the post; comments go with it via ON DELETE CASCADE.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePost(ctx, id)
	cache.InvalidateFeed(ctx)
	return nil
}
