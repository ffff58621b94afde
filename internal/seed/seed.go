// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is set on every seeded user.
const DefaultPassword = "Password123!@#"

// Seeder populates the database with demo content.
type Seeder struct {
	db  *gorm.DB
	rnd *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:  db,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll truncates every domain table. Order matters for FK constraints.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []string{"comments", "posts", "image_variants", "images", "categories", "locations", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

// SeedCategories creates a fixed set of publishing categories, one of them
// unpublished so visibility filtering has something to hide.
func (s *Seeder) SeedCategories() ([]*models.Category, error) {
	titles := []string{"Essays", "Travel Notes", "City Life", "Recipes", "Drafts Corner"}
	categories := make([]*models.Category, 0, len(titles))
	for i, title := range titles {
		category := &models.Category{
			Title:       title,
			Description: gofakeit.Sentence(8),
			Slug:        strings.ReplaceAll(strings.ToLower(title), " ", "-"),
			IsPublished: i != len(titles)-1,
		}
		if err := s.db.Create(category).Error; err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// SeedLocations creates a handful of locations.
func (s *Seeder) SeedLocations(count int) ([]*models.Location, error) {
	locations := make([]*models.Location, 0, count)
	for i := 0; i < count; i++ {
		location := &models.Location{
			Name:        gofakeit.City(),
			IsPublished: true,
		}
		if err := s.db.Create(location).Error; err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, nil
}

// SeedUsers creates count users sharing DefaultPassword.
func (s *Seeder) SeedUsers(count int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user := &models.User{
			Username:  fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			Email:     fmt.Sprintf("user%d@%s", i, gofakeit.DomainName()),
			Password:  string(hashed),
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Bio:       gofakeit.Sentence(12),
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedPosts spreads posts across users, categories and locations. A slice of
// them are drafts or scheduled into the future to exercise visibility rules.
func (s *Seeder) SeedPosts(users []*models.User, categories []*models.Category, locations []*models.Location, count int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to attach posts to")
	}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		user := users[s.rnd.Intn(len(users))]
		post := &models.Post{
			Title:       gofakeit.Sentence(5),
			Text:        gofakeit.Paragraph(2, 4, 8, "\n\n"),
			UserID:      user.ID,
			IsPublished: s.rnd.Intn(10) != 0,
			PubDate:     time.Now().UTC().Add(-time.Duration(s.rnd.Intn(90*24)) * time.Hour),
		}
		// Every ~12th post is scheduled in the future.
		if s.rnd.Intn(12) == 0 {
			post.PubDate = time.Now().UTC().Add(time.Duration(1+s.rnd.Intn(14*24)) * time.Hour)
		}
		if len(categories) > 0 && s.rnd.Intn(10) != 0 {
			post.CategoryID = &categories[s.rnd.Intn(len(categories))].ID
		}
		if len(locations) > 0 && s.rnd.Intn(3) != 0 {
			post.LocationID = &locations[s.rnd.Intn(len(locations))].ID
		}
		if s.rnd.Intn(4) == 0 {
			post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
		}
		if err := s.db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedComments scatters comments over the given posts.
func (s *Seeder) SeedComments(users []*models.User, posts []*models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}
	for i := 0; i < count; i++ {
		comment := &models.Comment{
			Text:   gofakeit.Sentence(10),
			PostID: posts[s.rnd.Intn(len(posts))].ID,
			UserID: users[s.rnd.Intn(len(users))].ID,
		}
		if err := s.db.Create(comment).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedAll runs the full seeding pipeline.
func (s *Seeder) SeedAll(numUsers, numPosts, numComments int) error {
	categories, err := s.SeedCategories()
	if err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}
	locations, err := s.SeedLocations(8)
	if err != nil {
		return fmt.Errorf("seeding locations: %w", err)
	}
	users, err := s.SeedUsers(numUsers)
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}
	posts, err := s.SeedPosts(users, categories, locations, numPosts)
	if err != nil {
		return fmt.Errorf("seeding posts: %w", err)
	}
	if err := s.SeedComments(users, posts, numComments); err != nil {
		return fmt.Errorf("seeding comments: %w", err)
	}
	log.Printf("Seeded %d users, %d posts, %d comments", len(users), len(posts), numComments)
	return nil
}
