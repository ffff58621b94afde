package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// onDeleteRule resolves the ON DELETE action the migrator would emit for the
// named association on the given model.
func onDeleteRule(t *testing.T, model interface{}, relation string) string {
	t.Helper()

	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	rel, ok := s.Relationships.Relations[relation]
	require.True(t, ok, "relation %s not found", relation)

	constraint := rel.ParseConstraint()
	require.NotNil(t, constraint, "relation %s declares no constraint", relation)
	return constraint.OnDelete
}

// Deleting a user must remove their posts and comments, deleting a post must
// remove its comments, and deleting a category or location must only null the
// post's reference. The repositories rely on the database enforcing this, so
// the declared rules are pinned here.
func TestForeignKeyOnDeleteRules(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CASCADE", onDeleteRule(t, &Post{}, "User"))
	assert.Equal(t, "SET NULL", onDeleteRule(t, &Post{}, "Category"))
	assert.Equal(t, "SET NULL", onDeleteRule(t, &Post{}, "Location"))

	assert.Equal(t, "CASCADE", onDeleteRule(t, &Comment{}, "Post"))
	assert.Equal(t, "CASCADE", onDeleteRule(t, &Comment{}, "User"))

	assert.Equal(t, "CASCADE", onDeleteRule(t, &Image{}, "Variants"))
}
