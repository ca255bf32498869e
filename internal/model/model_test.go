package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_FullName(t *testing.T) {
	u := User{FirstName: "Alice", LastName: "Liddell"}
	assert.Equal(t, "Alice Liddell", u.FullName())
}

func TestTaskPatch_Empty(t *testing.T) {
	assert.True(t, TaskPatch{}.Empty())
	done := true
	assert.False(t, TaskPatch{Done: &done}.Empty())
}
