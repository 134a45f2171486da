package validation

import (
	"errors"
	"testing"

	"bakery-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Internal string `json:"-"`
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Email: "nope", Password: "short"})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"name", "email", "password"}, ve.Fields())
	assert.Equal(t, "is required", ve.Violations[0].Message)
	assert.Equal(t, "must be at least 8 characters", ve.Violations[2].Message)
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(signup{Name: "A", Email: "a@example.com", Password: "longenough"}))
}
