package service

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tankermike11/staycation-journal/internal/dto"
	"github.com/tankermike11/staycation-journal/internal/models"
	"github.com/tankermike11/staycation-journal/pkg/media"
)

type imageURLSigner interface {
	Generate(imageID, size string) (string, time.Time, error)
}

// imageLinker renders image-serving URLs, signed when a signer is configured.
type imageLinker struct {
	signer imageURLSigner
	prefix string
}

func newImageLinker(signer imageURLSigner, apiPrefix string) imageLinker {
	prefix := strings.TrimRight(apiPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return imageLinker{signer: signer, prefix: prefix}
}

func (l imageLinker) link(imageID string, variant media.Variant) (string, time.Time) {
	base := fmt.Sprintf("%s/img/%s?size=%s", l.prefix, url.PathEscape(imageID), variant.Size())
	if l.signer == nil {
		return base, time.Time{}
	}
	token, expiresAt, err := l.signer.Generate(imageID, variant.Size())
	if err != nil {
		return base, time.Time{}
	}
	return base + "&token=" + url.QueryEscape(token), expiresAt
}

func (l imageLinker) view(img models.Image) dto.ImageView {
	thumb, expiresAt := l.link(img.ID, media.VariantThumb)
	web, _ := l.link(img.ID, media.VariantWeb)
	orig, _ := l.link(img.ID, media.VariantOriginal)
	return dto.ImageView{
		Image: img,
		URLs:  dto.ImageURLs{Thumb: thumb, Web: web, Orig: orig, ExpiresAt: expiresAt},
	}
}

func (l imageLinker) views(images []models.Image) []dto.ImageView {
	out := make([]dto.ImageView, 0, len(images))
	for _, img := range images {
		out = append(out, l.view(img))
	}
	return out
}
