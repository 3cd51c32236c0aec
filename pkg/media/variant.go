package media

import (
	"fmt"
	"strings"
)

// Variant names one stored rendition of an uploaded photo. The value doubles as the key namespace.
type Variant string

const (
	VariantOriginal Variant = "original"
	VariantWeb      Variant = "web"
	VariantThumb    Variant = "thumb"
)

// ContentType is the MIME type every variant is stored with.
const ContentType = "image/jpeg"

// Variants lists every variant in storage order.
var Variants = []Variant{VariantOriginal, VariantWeb, VariantThumb}

// Key returns the object key for image id under this variant, e.g. "thumb/{id}.jpg".
func (v Variant) Key(id string) string {
	return fmt.Sprintf("%s/%s.jpg", v, id)
}

// Size is the selector used by the image-serving endpoint.
func (v Variant) Size() string {
	if v == VariantOriginal {
		return "orig"
	}
	return string(v)
}

// ParseSize maps a size selector (thumb, web, orig) to its variant. An empty selector means web.
func ParseSize(raw string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "web":
		return VariantWeb, nil
	case "thumb":
		return VariantThumb, nil
	case "orig":
		return VariantOriginal, nil
	default:
		return "", fmt.Errorf("unknown size %q, expected thumb, web or orig", raw)
	}
}
