package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"Go", "sql"}, Normalize([]string{" Go ", "go", "", "sql", "SQL"}))
	assert.Empty(t, Normalize(nil))
}

func TestDiff(t *testing.T) {
	current := []models.Tag{{ID: 1, Name: "react"}, {ID: 2, Name: "js"}}

	tests := []struct {
		name       string
		desired    []string
		wantAdd    []string
		wantRemove []int
	}{
		{"swap one", []string{"js", "css"}, []string{"css"}, []int{1}},
		{"case insensitive keep", []string{"REACT", "Js"}, nil, nil},
		{"duplicates collapse", []string{"css", "CSS", "css"}, []string{"css"}, []int{1, 2}},
		{"clear", nil, nil, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			add, remove := Diff(current, tt.desired)
			assert.Equal(t, tt.wantAdd, add)

			var ids []int
			for _, r := range remove {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantRemove, ids)
		})
	}
}

func TestDiffFromEmpty(t *testing.T) {
	add, remove := Diff(nil, []string{"go", "Go", "sql"})
	assert.Equal(t, []string{"go", "sql"}, add)
	assert.Empty(t, remove)
}

func TestByLockOrder(t *testing.T) {
	writes := []tagWrite{
		{key: "react", add: "React"},
		{key: "js", remove: &models.Tag{ID: 9, Name: "JS"}},
		{key: "css", add: "css"},
	}

	byLockOrder(writes)

	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, w.key)
	}
	assert.Equal(t, []string{"css", "js", "react"}, keys)
}
