package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// GetURLWithScheme prefixes rawURL with http:// when it has no scheme, so
// configured marketplace/ERP base URLs can be given without one.
func GetURLWithScheme(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}

	if parsedURL.Scheme == "" || !strings.Contains("http https", parsedURL.Scheme) {
		rawURL, err = url.JoinPath("http://", rawURL)
		if err != nil {
			return "", fmt.Errorf("joining scheme to raw URL: %w", err)
		}
	}

	return rawURL, nil
}
