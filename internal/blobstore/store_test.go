// internal/blobstore/store_test.go
package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPut_EmptyContentIsNoOp(t *testing.T) {
	// The client is nil on purpose: an empty buffer must never reach the
	// store at all.
	s := &Store{bucket: "commit-data", prefix: "blobs"}

	uri, err := s.Put(context.Background(), nil, "blobs/octo/sample/ab/abc/after/f.txt")
	require.NoError(t, err)
	assert.Empty(t, uri)

	uri, err = s.Put(context.Background(), []byte{}, "blobs/octo/sample/ab/abc/after/f.txt")
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestStore_Prefix(t *testing.T) {
	s := &Store{prefix: "blobs"}
	assert.Equal(t, "blobs", s.Prefix())
}
