package experiment

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

// nodeRNG returns the random stream of one tree node. The stream depends
// only on the realization seed and the node path, so any node can be
// regenerated without replaying its siblings.
func nodeRNG(seed int64, path ...string) *rand.Rand {
	h := fnv.New64a()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(seed))
	h.Write(b[:])
	for _, p := range path {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
