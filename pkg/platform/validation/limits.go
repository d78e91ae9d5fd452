package validation

import (
	"fmt"

	dErrors "dhruva/pkg/domain-errors"
)

// MaxBodySize bounds JSON request bodies (64 KB).
const MaxBodySize = 64 * 1024

// Field length limits applied to request DTOs.
const (
	MaxAddressLength      = 128
	MaxDocumentHashLength = 256
	MaxNameLength         = 256
	MaxDescriptionLength  = 4096
	MaxURLLength          = 2048
	MaxReasonLength       = 1024
	MaxMetadataKeys       = 50
)

// CheckStringLength fails with CodeValidation when value is longer than max bytes.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckMapSize fails with CodeValidation when a map has more than max keys.
func CheckMapSize(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}
