package replenish

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"
)

var errNotImage = errors.New("generated blob is not an image")

type blobFormat struct {
	ext         string
	contentType string
}

// sniffImage identifies the blob format so objects get a matching extension.
func sniffImage(data []byte) (blobFormat, error) {
	if len(data) == 0 {
		return blobFormat{}, errNotImage
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		switch format {
		case "jpeg":
			return blobFormat{ext: "jpg", contentType: "image/jpeg"}, nil
		default:
			return blobFormat{ext: format, contentType: "image/" + format}, nil
		}
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return blobFormat{}, errNotImage
	}
	return blobFormat{ext: strings.TrimPrefix(ct, "image/"), contentType: ct}, nil
}
