package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jrdriving/jrdriving-api/internal/model"
)

const (
	// MaxAttachmentBytes bounds one decoded file.
	MaxAttachmentBytes = 5 << 20
	// MaxAttachments bounds the files of one submission.
	MaxAttachments = 5
)

// AttachmentInput is a file embedded in a JSON submission.  Data is base64;
// Size is informational and replaced by the decoded length.
type AttachmentInput struct {
	Name string `json:"name" validate:"required,max=255"`
	Type string `json:"type" validate:"max=150"`
	Size int64  `json:"size" validate:"gte=0,lte=5242880"`
	Data string `json:"data" validate:"required"`
}

// decodeAttachments checks that every file decodes and fits, and returns the
// rows to store.  Problems are added to fields.
func decodeAttachments(in []AttachmentInput, fields fieldErrors) []model.Attachment {
	out := make([]model.Attachment, 0, len(in))
	for i, a := range in {
		key := fmt.Sprintf("attachments[%d].data", i)
		data := strings.TrimSpace(a.Data)
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			fields.add(key, "must be valid base64")
			continue
		}
		if len(raw) > MaxAttachmentBytes {
			fields.add(key, "must decode to at most 5 MiB")
			continue
		}
		out = append(out, model.Attachment{
			FileName: strings.TrimSpace(a.Name),
			MimeType: optional(strings.TrimSpace(a.Type)),
			FileSize: int64(len(raw)),
			Content:  data,
		})
	}
	return out
}

// DecodeContent returns the raw bytes of a stored attachment.
func DecodeContent(a model.Attachment) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(a.Content)
	if err != nil {
		return nil, fmt.Errorf("attachment %d: corrupt content: %w", a.ID, err)
	}
	return raw, nil
}
