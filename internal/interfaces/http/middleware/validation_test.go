package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createSiloForm struct {
	Name  string `json:"name" form:"name" binding:"required"`
	Email string `form:"contact" binding:"omitempty,email"`
	Code  string `json:"code" binding:"omitempty,max=3"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	err := binding.Validator.ValidateStruct(&createSiloForm{Email: "not-an-email", Code: "TOOLONG"})
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 3)

	byField := map[string]string{}
	for _, d := range details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", byField["name"])
	assert.Equal(t, "Invalid email format", byField["contact"], "falls back to the form tag")
	assert.Equal(t, "Must be at most 3 characters", byField["code"])
}

func TestValidationDetails_OtherErrors(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
	assert.Nil(t, ValidationDetails(nil))
}
