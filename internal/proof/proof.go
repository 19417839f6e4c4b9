// Package proof handles the photographic proof attached to a submission.
//
// Images travel as data URIs so a record is self-contained: the decoded
// payload is capped at MaxSize and must sniff as an image/* MIME type.
package proof

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxSize is the largest accepted decoded image, 1 MiB.
const MaxSize = 1 << 20

var (
	ErrEmpty     = errors.New("proof image is empty")
	ErrTooLarge  = fmt.Errorf("proof image exceeds %d bytes", MaxSize)
	ErrNotImage  = errors.New("proof must be an image")
	ErrMalformed = errors.New("proof image is not a valid data URI")
)

// Image is a decoded, validated proof image.
type Image struct {
	MIME      string
	Extension string
	Data      []byte
}

// DataURI encodes the image in its portable inline form.
func (i Image) DataURI() string {
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// FromReader reads an uploaded file, rejecting anything over MaxSize
// without buffering more than MaxSize+1 bytes.
func FromReader(r io.Reader) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return Image{}, fmt.Errorf("reading proof image: %w", err)
	}

	return fromBytes(data)
}

// EncodeReader wraps up to MaxSize+1 bytes of r in a data URI without
// validating them, leaving the verdict to ParseDataURI.
func EncodeReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("reading proof image: %w", err)
	}

	if len(data) == 0 {
		return "", nil
	}

	return "data:" + mimetype.Detect(data).String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ParseDataURI decodes and validates a base64 data URI. The declared media
// type is ignored in favour of the sniffed one.
func ParseDataURI(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, ErrEmpty
	}

	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Image{}, ErrMalformed
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return Image{}, ErrMalformed
	}

	// Reject before decoding when the encoded length alone is over the cap.
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxSize+2 {
		return Image{}, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, ErrMalformed
	}

	return fromBytes(data)
}

func fromBytes(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmpty
	}

	if len(data) > MaxSize {
		return Image{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !isImage(mt) {
		return Image{}, ErrNotImage
	}

	return Image{
		MIME:      mt.String(),
		Extension: mt.Extension(),
		Data:      bytes.Clone(data),
	}, nil
}

func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}

	return false
}
