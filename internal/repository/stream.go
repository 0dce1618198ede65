package repository

import (
	"path/filepath"
	"strings"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

// StoreExt is the file extension of per-stream detection stores
const StoreExt = ".db"

const maxStreamLen = 128

// mediaExts are stripped from stream ids so a video path maps onto its store
var mediaExts = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true, StoreExt: true}

// StreamID maps a stream id onto its store file stem. A video path is
// reduced to its base name without the media extension, so
// "videos/junction.mp4" and "junction" address the same store. Anything
// else is used as given: ids with characters outside letters, digits,
// dot, underscore and dash are rejected rather than rewritten, so two
// different ids never share a store. field names the offending request
// field in the returned ValidationError.
func StreamID(field, stream string) (string, error) {
	stem := filepath.Base(strings.TrimSpace(stream))
	if ext := filepath.Ext(stem); mediaExts[strings.ToLower(ext)] {
		stem = strings.TrimSuffix(stem, ext)
	}

	if stem == "" || stem == "." || strings.TrimSpace(stream) == "" {
		return "", &models.ValidationError{Field: field, Reason: "empty stream id"}
	}
	if len(stem) > maxStreamLen {
		return "", &models.ValidationError{Field: field, Reason: "stream id too long"}
	}
	if strings.HasPrefix(stem, ".") {
		return "", &models.ValidationError{Field: field, Reason: "stream id must not start with a dot"}
	}
	for _, r := range stem {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
		default:
			return "", &models.ValidationError{
				Field:  field,
				Reason: "stream id " + stem + " may only contain letters, digits, '.', '_' and '-'",
			}
		}
	}

	return stem, nil
}
