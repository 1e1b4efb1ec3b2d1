// Package workspacehash implements the two hash algorithms spec.md treats
// as part of the wire contract: a fast per-file content digest, and the
// canonical 12-character workspace hash derived from it. Changing either
// is a breaking change that forces a full re-index (spec.md §4.5, §6).
package workspacehash

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the per-file content digest used in IndexSnapshot.
// xxhash is fast enough to run on every discovered file without slowing
// down the walk. Every content hash feeds the workspace hash below, so
// swapping it changes every workspace hash and forces a full re-index.
func ContentHash(content []byte) string {
	return hex.EncodeToString(uint64ToBytes(xxhash.Sum64(content)))
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// FileDigest is one (relative_path, content_hash) pair contributing to the
// workspace hash.
type FileDigest struct {
	RelPath     string
	ContentHash string
}

// Workspace computes the canonical workspace hash: MD5 of the
// newline-joined, sorted list of "relative_path\tcontent_hash" lines,
// truncated to 12 lowercase hex characters. This is the algorithm spec.md
// §6 and §9 pin as stable; the historical SHA256[:16] variant is not
// supported here (see DESIGN.md for the migration note).
func Workspace(digests []FileDigest) string {
	lines := make([]string, 0, len(digests))
	for _, d := range digests {
		lines = append(lines, d.RelPath+"\t"+d.ContentHash)
	}
	sort.Strings(lines)
	joined := strings.Join(lines, "\n")
	sum := md5.Sum([]byte(joined))
	return hex.EncodeToString(sum[:])[:12]
}
