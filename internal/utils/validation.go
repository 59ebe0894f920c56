package utils

import (
	"fmt"
	"regexp"

	"github.com/asaskevich/govalidator"
)

var rxSellerSlug = regexp.MustCompile(`^[a-z0-9](?:-?[a-z0-9])*$`)

// ValidateSellerSlug checks that slug is a well-formed seller identifier
// (§3 "opaque slug (stable ID)") before it reaches any query or ERP call,
// per §7's "local validation" failure kind: malformed identifiers are
// rejected synchronously as 4xx rather than surfacing as a downstream
// database or ERP error.
func ValidateSellerSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("seller is required")
	}
	if !govalidator.IsByteLength(slug, 1, 64) || !rxSellerSlug.MatchString(slug) {
		return fmt.Errorf("seller %q is not a valid slug", slug)
	}
	return nil
}
