// internal/blobstore/keys.go
package blobstore

import "path"

// MakeKey builds the object key for one side of a file change:
//
//	{prefix}/{repo}/{sha[:2]}/{sha}/{side}/{basename}
//
// The two-character shard spreads objects across many prefixes so no single
// store partition turns hot, and keeps a commit's snapshot enumerable under
// one prefix for the restore path.
func MakeKey(prefix, repo, sha, side, filePath string) string {
	shard := sha
	if len(sha) > 2 {
		shard = sha[:2]
	}
	return path.Join(prefix, repo, shard, sha, side, path.Base(filePath))
}

// SnapshotPrefix returns the key prefix covering every file of one side of a
// commit, for prefix-enumerated listing.
func SnapshotPrefix(prefix, repo, sha, side string) string {
	shard := sha
	if len(sha) > 2 {
		shard = sha[:2]
	}
	return path.Join(prefix, repo, shard, sha, side) + "/"
}
