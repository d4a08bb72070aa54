package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPersistentStoryID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, PersistentStoryID(id.String()))

	a := PersistentStoryID("story_1699999999_abc123xyz")
	assert.Equal(t, a, PersistentStoryID("story_1699999999_abc123xyz"))
	assert.Equal(t, uuid.Version(5), a.Version())
	assert.NotEqual(t, a, PersistentStoryID("story_1699999999_other"))
}
