package serverutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name" validate:"required,max=10"`
	Kind  string `json:"kind" validate:"omitempty,oneof=draft final"`
	Email string `json:"email" validate:"omitempty,email"`
	Count int    `json:"count" validate:"min=1,max=5"`
}

func fieldCodes(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	codes := make(map[string]string)
	for _, d := range ve.ToErrorDetails() {
		codes[d.Field] = d.Code
	}
	return codes
}

func TestValidateRequestMapsTagsToCodes(t *testing.T) {
	err := ValidateRequest(&sampleRequest{
		Name:  "this name is far too long",
		Kind:  "neither",
		Email: "not-an-email",
		Count: 0,
	})
	require.Error(t, err)

	codes := fieldCodes(t, err)
	assert.Equal(t, CodeTooLong, codes["name"])
	assert.Equal(t, CodeInvalidEnum, codes["kind"])
	assert.Equal(t, CodeInvalidFormat, codes["email"])
	assert.Equal(t, CodeTooSmall, codes["count"])
}

func TestValidateRequestRequired(t *testing.T) {
	err := ValidateRequest(&sampleRequest{Count: 3})
	require.Error(t, err)

	codes := fieldCodes(t, err)
	assert.Equal(t, CodeRequired, codes["name"])
}

func TestValidateRequestUsesJsonFieldNames(t *testing.T) {
	err := ValidateRequest(&sampleRequest{Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[required] name:")
	assert.NotContains(t, err.Error(), "Name")
}

func TestValidateRequestPassesValidInput(t *testing.T) {
	require.NoError(t, ValidateRequest(&sampleRequest{Name: "ok", Count: 3}))
}

func TestValidationErrorJoinsDetails(t *testing.T) {
	err := NewValidationError(
		ErrorDetail{Field: "title", Code: CodeTooLong, Message: "must be at most 200 characters"},
		ErrorDetail{Field: "note", Code: CodeCustom, Message: "title and content cannot both be empty"},
	)
	assert.Equal(t,
		"[too-long] title: must be at most 200 characters; [custom] note: title and content cannot both be empty",
		err.Error(),
	)
}
