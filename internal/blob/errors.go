package blob

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var ErrInvalidKey = errors.New("blob: invalid key")

// describe renders an S3 error as "Code: message" when the service sent one.
func describe(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}

// ObjectError is a per-key failure reported inside a successful DeleteObjects response.
type ObjectError struct {
	Code    string
	Message string
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
