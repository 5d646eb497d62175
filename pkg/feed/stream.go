package feed

import (
	"errors"
	"io"
)

// ErrUnsupportedOperation is returned by every binary-stream operation.
// Package content is addressed by URL and served outside the feed.
var ErrUnsupportedOperation = errors.New("operation not supported")

const (
	// StreamContentType is the media type of package content.
	StreamContentType = "application/zip"
	// StreamBufferSize is the buffer size advertised for stream transfers.
	StreamBufferSize = 64000
)

// StreamProvider holds the fixed answers for binary-stream operations. It is
// embedded by Service and may be embedded by any other feed implementation.
// The arguments are accepted for signature compatibility and ignored.
type StreamProvider struct{}

// DeleteStream always fails with ErrUnsupportedOperation.
func (StreamProvider) DeleteStream(entity any) error {
	return ErrUnsupportedOperation
}

// GetReadStream always fails with ErrUnsupportedOperation.
func (StreamProvider) GetReadStream(entity any, etag string, checkETagForEquality *bool) (io.ReadCloser, error) {
	return nil, ErrUnsupportedOperation
}

// GetWriteStream always fails with ErrUnsupportedOperation.
func (StreamProvider) GetWriteStream(entity any, etag string, checkETagForEquality *bool) (io.WriteCloser, error) {
	return nil, ErrUnsupportedOperation
}

// ResolveType always fails with ErrUnsupportedOperation.
func (StreamProvider) ResolveType(entitySetName string) (string, error) {
	return "", ErrUnsupportedOperation
}

// GetStreamContentType returns StreamContentType for any entity.
func (StreamProvider) GetStreamContentType(entity any) string {
	return StreamContentType
}

// GetStreamETag reports that no stream carries an ETag.
func (StreamProvider) GetStreamETag(entity any) (string, bool) {
	return "", false
}

// StreamBufferSize returns the StreamBufferSize constant.
func (StreamProvider) StreamBufferSize() int {
	return StreamBufferSize
}
