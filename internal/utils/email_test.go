package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{email: "ops@example.com"},
		{email: "web+alerts@example.com"},
		{email: "first.last@mail.example.co.uk"},
		{email: "", want: ErrEmailEmpty},
		{email: "ops", want: ErrEmailInvalid},
		{email: "ops@localhost", want: ErrEmailInvalid},
		{email: "@example.com", want: ErrEmailInvalid},
		{email: "ops@example.", want: ErrEmailInvalid},
		{email: "Ops <ops@example.com>", want: ErrEmailInvalid},
		{email: " ops@example.com", want: ErrEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
