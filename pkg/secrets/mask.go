package secrets

import (
	"net/url"
	"strings"

	masker "github.com/goliatone/go-masker"
)

var maskedFields = []string{
	"p256dh", "auth", "private_key", "public_key", "endpoint",
}

func init() {
	// Register push credential fields so masking uses sane defaults.
	for _, field := range maskedFields {
		masker.Default.RegisterMaskField(field, "preserveEnds(2,2)")
	}
}

// MaskEndpoint returns a log-safe form of a push endpoint URL. The path
// carries the per-subscription token, so only host plus a masked tail is kept.
func MaskEndpoint(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return MaskValue(endpoint)
	}
	return parsed.Scheme + "://" + parsed.Host + "/" + MaskValue(strings.TrimPrefix(parsed.Path, "/"))
}

// MaskValue masks a credential-ish string for logging.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String("preserveEnds(2,2)", value); err == nil {
		return masked
	}
	// Fallback masking if no rule is registered.
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
