package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint, uint) (*models.Post, error)
	listPublishedFn  func(context.Context, int, int) ([]*models.Post, error)
	countPublishedFn func(context.Context) (int64, error)
	listByCategoryFn func(context.Context, uint, int, int) ([]*models.Post, error)
	countByCatFn     func(context.Context, uint) (int64, error)
	listByAuthorFn   func(context.Context, uint, bool, int, int) ([]*models.Post, error)
	countByAuthorFn  func(context.Context, uint, bool) (int64, error)
	updateFn         func(context.Context, *models.Post) error
	deleteFn         func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error { return s.createFn(ctx, p) }
func (s *postRepoStub) GetByID(ctx context.Context, id, cur uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, cur)
}
func (s *postRepoStub) ListPublished(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listPublishedFn(ctx, limit, offset)
}
func (s *postRepoStub) CountPublished(ctx context.Context) (int64, error) {
	return s.countPublishedFn(ctx)
}
func (s *postRepoStub) ListByCategory(ctx context.Context, catID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByCategoryFn(ctx, catID, limit, offset)
}
func (s *postRepoStub) CountByCategory(ctx context.Context, catID uint) (int64, error) {
	return s.countByCatFn(ctx, catID)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, userID uint, publishedOnly bool, limit, offset int) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, userID, publishedOnly, limit, offset)
}
func (s *postRepoStub) CountByAuthor(ctx context.Context, userID uint, publishedOnly bool) (int64, error) {
	return s.countByAuthorFn(ctx, userID, publishedOnly)
}
func (s *postRepoStub) Update(ctx context.Context, p *models.Post) error { return s.updateFn(ctx, p) }
func (s *postRepoStub) Delete(ctx context.Context, id uint) error        { return s.deleteFn(ctx, id) }

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listPublishedFn: func(_ context.Context, _, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		countPublishedFn: func(_ context.Context) (int64, error) { return 0, nil },
		listByCategoryFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		countByCatFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		listByAuthorFn: func(_ context.Context, _ uint, _ bool, _, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		countByAuthorFn: func(_ context.Context, _ uint, _ bool) (int64, error) { return 0, nil },
		updateFn:        func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	getBySlugFn func(context.Context, string) (*models.Category, error)
	listFn      func(context.Context) ([]*models.Category, error)
	createFn    func(context.Context, *models.Category) error
}

func (s *categoryRepoStub) GetPublishedBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *categoryRepoStub) ListPublished(ctx context.Context) ([]*models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		getBySlugFn: func(_ context.Context, slug string) (*models.Category, error) {
			return &models.Category{ID: 1, Slug: slug, IsPublished: true}, nil
		},
		listFn:   func(_ context.Context) ([]*models.Category, error) { return nil, nil },
		createFn: func(_ context.Context, _ *models.Category) error { return nil },
	}
}

// locationRepoStub is a stub for repository.LocationRepository.
type locationRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Location, error)
	listFn    func(context.Context) ([]*models.Location, error)
	createFn  func(context.Context, *models.Location) error
}

func (s *locationRepoStub) GetByID(ctx context.Context, id uint) (*models.Location, error) {
	return s.getByIDFn(ctx, id)
}
func (s *locationRepoStub) ListPublished(ctx context.Context) ([]*models.Location, error) {
	return s.listFn(ctx)
}
func (s *locationRepoStub) Create(ctx context.Context, l *models.Location) error {
	return s.createFn(ctx, l)
}

func noopLocationRepo() *locationRepoStub {
	return &locationRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Location, error) {
			return &models.Location{ID: id}, nil
		},
		listFn:   func(_ context.Context) ([]*models.Location, error) { return nil, nil },
		createFn: func(_ context.Context, _ *models.Location) error { return nil },
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeForbidden, appErr.Code)
}

func publishedPost(id, userID uint) *models.Post {
	return &models.Post{
		ID:          id,
		Title:       "A post",
		Text:        "content",
		PubDate:     time.Now().UTC().Add(-time.Hour),
		UserID:      userID,
		IsPublished: true,
		Category:    &models.Category{ID: 1, Slug: "essays", IsPublished: true},
	}
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopCategoryRepo(), noopLocationRepo())
	ctx := context.Background()

	t.Run("empty title", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 1, Text: "body"})
		assertValidationError(t, err)
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 1, Title: "title"})
		assertValidationError(t, err)
	})

	t.Run("title too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{
			UserID: 1,
			Title:  strings.Repeat("x", 257),
			Text:   "body",
		})
		assertValidationError(t, err)
	})
}

func TestPostService_CreatePost_DefaultsPubDate(t *testing.T) {
	t.Parallel()

	var created *models.Post
	postRepo := noopPostRepo()
	postRepo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 7
		created = p
		return nil
	}

	svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())
	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1,
		Title:  "Morning pages",
		Text:   "body",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.WithinDuration(t, time.Now().UTC(), created.PubDate, 5*time.Second)
	assert.True(t, created.IsPublished)
}

func TestPostService_GetPost_Visibility(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("author sees own draft", func(t *testing.T) {
		t.Parallel()
		draft := publishedPost(5, 1)
		draft.IsPublished = false
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) { return draft, nil }

		svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())
		post, err := svc.GetPost(ctx, 5, 1)
		require.NoError(t, err)
		assert.Equal(t, uint(5), post.ID)
	})

	t.Run("stranger cannot see draft", func(t *testing.T) {
		t.Parallel()
		draft := publishedPost(5, 1)
		draft.IsPublished = false
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) { return draft, nil }

		svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())
		_, err := svc.GetPost(ctx, 5, 2)
		assertNotFoundError(t, err)
	})

	t.Run("stranger cannot see scheduled post", func(t *testing.T) {
		t.Parallel()
		scheduled := publishedPost(5, 1)
		scheduled.PubDate = time.Now().UTC().Add(48 * time.Hour)
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) { return scheduled, nil }

		svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())
		_, err := svc.GetPost(ctx, 5, 2)
		assertNotFoundError(t, err)
	})

	t.Run("post without category hidden from strangers", func(t *testing.T) {
		t.Parallel()
		orphan := publishedPost(5, 1)
		orphan.Category = nil
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) { return orphan, nil }

		svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())
		_, err := svc.GetPost(ctx, 5, 2)
		assertNotFoundError(t, err)
	})

	t.Run("anyone sees published post", func(t *testing.T) {
		t.Parallel()
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
			return publishedPost(5, 1), nil
		}

		svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())
		post, err := svc.GetPost(ctx, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, uint(5), post.ID)
	})
}

func TestPostService_UpdatePost_Ownership(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
		return publishedPost(5, 1), nil
	}

	svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())
	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 2, PostID: 5, Title: "Hijack"})
	assertForbiddenError(t, err)
}

func TestPostService_DeletePost_Ownership(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
		return publishedPost(5, 1), nil
	}
	deleted := false
	postRepo.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}

	svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())

	err := svc.DeletePost(context.Background(), 5, 2)
	assertForbiddenError(t, err)
	assert.False(t, deleted)

	err = svc.DeletePost(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestPostService_ListByCategory_UnknownSlug(t *testing.T) {
	t.Parallel()

	catRepo := noopCategoryRepo()
	catRepo.getBySlugFn = func(_ context.Context, slug string) (*models.Category, error) {
		return nil, models.NewNotFoundError("Category", slug)
	}

	svc := NewPostService(noopPostRepo(), catRepo, noopLocationRepo())
	_, _, err := svc.ListByCategory(context.Background(), "ghost", ListPostsInput{Limit: 10})
	assertNotFoundError(t, err)
}

func TestPostService_ListByAuthor_PublishedOnlyForVisitors(t *testing.T) {
	t.Parallel()

	var gotPublishedOnly bool
	postRepo := noopPostRepo()
	postRepo.listByAuthorFn = func(_ context.Context, _ uint, publishedOnly bool, _, _ int) ([]*models.Post, error) {
		gotPublishedOnly = publishedOnly
		return nil, nil
	}

	svc := NewPostService(postRepo, noopCategoryRepo(), noopLocationRepo())

	_, err := svc.ListByAuthor(context.Background(), 1, 2, ListPostsInput{Limit: 10})
	require.NoError(t, err)
	assert.True(t, gotPublishedOnly)

	_, err = svc.ListByAuthor(context.Background(), 1, 1, ListPostsInput{Limit: 10})
	require.NoError(t, err)
	assert.False(t, gotPublishedOnly)
}
