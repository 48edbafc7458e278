package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campushub-api/internal/dto"
	"github.com/noah-isme/campushub-api/internal/models"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
)

func TestNewValidatorCustomRules(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Var("aiml", "branch"))
	assert.Error(t, v.Var("MBA", "branch"))
	assert.NoError(t, v.Var("pyq", "resourcetype"))
	assert.Error(t, v.Var("video", "resourcetype"))
	assert.NoError(t, v.Var("https://example.com/a?b=c", "httpurl"))
	assert.Error(t, v.Var("javascript:alert(1)", "httpurl"))
	assert.Error(t, v.Var("https://", "httpurl"))
}

func TestValidationErrorUsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := v.Struct(dto.UploadResourceRequest{
		Branch:       "CSE",
		Semester:     2,
		Subject:      "Maths",
		Title:        "Maths link",
		ResourceType: models.ResourceTypeContent,
		Tags:         []string{"ok"},
	})
	require.Error(t, err)

	converted := validationError(err)
	var appErr *appErrors.Error
	require.True(t, errors.As(converted, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "contentLink", appErr.Fields[0].Field)
	assert.Equal(t, "contentLink is required", appErr.Fields[0].Message)
}

func TestValidationErrorWrapsForeignErrors(t *testing.T) {
	converted := validationError(errors.New("odd"))
	assert.ErrorIs(t, converted, appErrors.ErrValidation)
}
