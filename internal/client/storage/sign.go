package storage

import (
	"context"

	"github.com/aligned-app/aligned/internal/logging"
)

// SignImages returns images with every bucket URL replaced by a presigned
// one. Inline data and foreign URLs are kept. A URL that cannot be signed is
// kept unchanged and logged. A nil Presigner returns images as they are.
func SignImages(ctx context.Context, p Presigner, log logging.Logger, images []string) []string {
	out := make([]string, len(images))
	copy(out, images)
	if p == nil {
		return out
	}

	for i, img := range out {
		key, ok := p.KeyFor(img)
		if !ok {
			continue
		}
		signed, err := p.PresignGet(ctx, key)
		if err != nil {
			log.Warn(ctx, "presign failed, keeping raw url", "key", key, "error", err)
			continue
		}
		out[i] = signed
	}
	return out
}
