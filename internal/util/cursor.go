package util

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCursor is returned when a pagination token cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

const cursorSeparator = "_"

// EncodeCursor builds an opaque, URL-safe pagination token from a
// timestamp and a row id. The id acts as a tie-break key when several
// rows share the same timestamp.
func EncodeCursor(createdAt time.Time, id uint) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + strconv.FormatUint(uint64(id), 10)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. It fails with ErrInvalidCursor if
// the separator is absent, the timestamp does not parse, or the id is
// not numeric.
func DecodeCursor(token string) (time.Time, uint, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, 0, ErrInvalidCursor
	}

	parts := strings.SplitN(string(raw), cursorSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return time.Time{}, 0, ErrInvalidCursor
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, 0, ErrInvalidCursor
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, ErrInvalidCursor
	}

	return createdAt, uint(id), nil
}

// EncodeTimeCursor builds a timestamp-only token. Root-comment and post
// listings paginate on createdAt alone, without a tie-break id.
func EncodeTimeCursor(createdAt time.Time) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeTimeCursor reverses EncodeTimeCursor.
func DecodeTimeCursor(token string) (time.Time, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}

	createdAt, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}

	return createdAt, nil
}
