package board

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the length of a board digest. Collisions at 64 bits are an
// accepted risk for frequency aggregation.
const DigestSize = 8

// Digest is the BLAKE2b-64 content hash of a board's row-major cell bytes.
type Digest [DigestSize]byte

// Hash digests b. The result depends only on the cell contents, so equal
// boards hash equally on every platform and run.
func Hash(b Board) Digest {
	h, err := blake2b.New(DigestSize, nil)
	if err != nil {
		// Only reachable with an invalid size or key.
		panic(err)
	}
	h.Write(b.cells)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }
