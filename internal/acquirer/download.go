package acquirer

import (
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/frierosdesign/eventsync/internal/browser"
	"github.com/frierosdesign/eventsync/internal/types"
)

// Image downloads are capped; posts ship multi-MB originals we don't need.
const maxImageBytes = 8 << 20

var downloadHeaders = map[string]string{
	"User-Agent":      browser.DefaultUserAgent,
	"Accept":          "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9,es;q=0.8",
	"Referer":         "https://www.instagram.com/",
}

// DownloadImage fetches an image with a browser-like header set. It returns
// nil on any failure; a missing image never aborts an extraction, it only
// downgrades the vision call to text-only.
func (a *Acquirer) DownloadImage(ctx context.Context, imageURL string) *types.ImagePayload {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		a.log.WithError(err).WithField("url", imageURL).Debug("Bad image URL")
		return nil
	}
	for k, v := range downloadHeaders {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.WithError(err).WithField("url", imageURL).Debug("Image download failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		a.log.WithFields(logrus.Fields{"url": imageURL, "status": resp.StatusCode}).Debug("Image download rejected")
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil || len(data) == 0 {
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &types.ImagePayload{
		Data:        data,
		ContentType: contentType,
		Size:        len(data),
	}
}
