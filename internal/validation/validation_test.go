package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
)

type askParams struct {
	Title string   `json:"title" validate:"required,min=5,max=100"`
	Tags  []string `json:"tags" validate:"required,min=1,max=3,dive,required,max=30"`
	Email string   `json:"email,omitempty" validate:"omitempty,email"`
	Kind  string   `json:"kind" validate:"omitempty,oneof=question answer"`
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(askParams{Title: "Valid title", Tags: []string{"go"}}))
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	err := Struct(askParams{Title: "abc", Tags: []string{"a", "b", "c", "d"}, Email: "nope", Kind: "comment"})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, map[string][]string{
		"title": {"must be at least 5 characters"},
		"tags":  {"must have at most 3 items"},
		"email": {"must be a valid email address"},
		"kind":  {"must be one of: question answer"},
	}, appErr.Details)
}

func TestStructNestedElementPath(t *testing.T) {
	err := Struct(askParams{Title: "Valid title", Tags: []string{"go", ""}})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"is required"}, appErr.Details["tags[1]"])
}

func TestStructNotBlank(t *testing.T) {
	type tagged struct {
		Tags []string `json:"tags" validate:"required,min=1,dive,notblank"`
	}

	err := Struct(tagged{Tags: []string{"   "}})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, map[string][]string{"tags[0]": {"must not be blank"}}, appErr.Details)
	assert.NoError(t, Struct(tagged{Tags: []string{" go "}}))
}

func TestStructRequired(t *testing.T) {
	err := Struct(askParams{})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "title")
	assert.Contains(t, appErr.Details, "tags")
}
