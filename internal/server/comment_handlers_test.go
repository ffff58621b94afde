package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCommentRepository is a mock of the CommentRepository interface
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// recordingMailer captures outgoing notifications.
type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, _, _ string) error {
	m.sent = append(m.sent, to)
	return m.err
}

func newCommentTestServer(
	commentRepo *MockCommentRepository,
	postRepo *MockPostRepository,
	userRepo *MockUserRepository,
	mail *recordingMailer,
) *Server {
	s := &Server{
		config:      &config.Config{JWTSecret: "test-secret-test-secret-test-sec"},
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
	}
	s.commentService = service.NewCommentService(commentRepo, postRepo, userRepo, mail, "http://localhost:8480")
	return s
}

func TestCreateComment_NotifiesPostAuthor(t *testing.T) {
	postRepo := new(MockPostRepository)
	postRepo.On("GetByID", mock.Anything, uint(5), uint(2)).Return(visiblePost(5, 1), nil)

	commentRepo := new(MockCommentRepository)
	commentRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Comment).ID = 9
	}).Return(nil)
	commentRepo.On("GetByID", mock.Anything, uint(9)).
		Return(&models.Comment{ID: 9, Text: "nice", PostID: 5, UserID: 2}, nil)

	userRepo := new(MockUserRepository)
	userRepo.On("GetByID", mock.Anything, uint(1)).
		Return(&models.User{ID: 1, Email: "author@example.com"}, nil)

	mail := &recordingMailer{}
	s := newCommentTestServer(commentRepo, postRepo, userRepo, mail)

	app := fiber.New()
	withUser(app, 2)
	app.Post("/posts/:id/comment", s.CreateComment)

	body, _ := json.Marshal(map[string]string{"text": "nice"})
	req := httptest.NewRequest(http.MethodPost, "/posts/5/comment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "author@example.com", mail.sent[0])
}

func TestCreateComment_MailFailureStillCreates(t *testing.T) {
	postRepo := new(MockPostRepository)
	postRepo.On("GetByID", mock.Anything, uint(5), uint(2)).Return(visiblePost(5, 1), nil)

	commentRepo := new(MockCommentRepository)
	commentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	commentRepo.On("GetByID", mock.Anything, mock.Anything).
		Return(&models.Comment{ID: 9, Text: "nice", PostID: 5, UserID: 2}, nil)

	userRepo := new(MockUserRepository)
	userRepo.On("GetByID", mock.Anything, uint(1)).
		Return(&models.User{ID: 1, Email: "author@example.com"}, nil)

	mail := &recordingMailer{err: assert.AnError}
	s := newCommentTestServer(commentRepo, postRepo, userRepo, mail)

	app := fiber.New()
	withUser(app, 2)
	app.Post("/posts/:id/comment", s.CreateComment)

	body, _ := json.Marshal(map[string]string{"text": "nice"})
	req := httptest.NewRequest(http.MethodPost, "/posts/5/comment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUpdateComment_NonOwnerRedirectsToPost(t *testing.T) {
	commentRepo := new(MockCommentRepository)
	commentRepo.On("GetByID", mock.Anything, uint(9)).
		Return(&models.Comment{ID: 9, Text: "old", PostID: 5, UserID: 2}, nil)

	s := newCommentTestServer(commentRepo, new(MockPostRepository), new(MockUserRepository), &recordingMailer{})

	app := fiber.New()
	withUser(app, 3)
	app.Put("/posts/:id/edit_comment/:commentId", s.UpdateComment)

	body, _ := json.Marshal(map[string]string{"text": "edited"})
	req := httptest.NewRequest(http.MethodPut, "/posts/5/edit_comment/9", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/posts/5", resp.Header.Get("Location"))
}

func TestDeleteComment_Owner(t *testing.T) {
	commentRepo := new(MockCommentRepository)
	commentRepo.On("GetByID", mock.Anything, uint(9)).
		Return(&models.Comment{ID: 9, PostID: 5, UserID: 2}, nil)
	commentRepo.On("Delete", mock.Anything, uint(9)).Return(nil)

	s := newCommentTestServer(commentRepo, new(MockPostRepository), new(MockUserRepository), &recordingMailer{})

	app := fiber.New()
	withUser(app, 2)
	app.Delete("/posts/:id/delete_comment/:commentId", s.DeleteComment)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/5/delete_comment/9", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	commentRepo.AssertExpectations(t)
}
