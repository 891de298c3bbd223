package feature

import (
	"crypto/md5"
	"math/big"
)

// DefaultBuckets is the bucket count the trained model was built against.
const DefaultBuckets = 1000

// HashFeature maps a categorical string to a bucket index in [0, nBuckets).
//
// The algorithm is part of the trained-model artifact contract and must not
// change: MD5 over the UTF-8 bytes of the value, the 16-byte digest read as
// a big-endian unsigned integer, reduced modulo nBuckets. Any change to the
// hash, the byte encoding, or the reduction silently re-buckets every
// feature and invalidates the model.
//
// Empty values land in bucket 0 and share it with whatever real value
// happens to hash there. The model was trained with this collision; do not
// move empties to a dedicated unknown bucket.
func HashFeature(value string, nBuckets int) int {
	if nBuckets <= 0 {
		nBuckets = DefaultBuckets
	}
	if value == "" {
		return 0
	}
	sum := md5.Sum([]byte(value))
	n := new(big.Int).SetBytes(sum[:])
	return int(n.Mod(n, big.NewInt(int64(nBuckets))).Int64())
}

func hashPtr(value *string) int {
	if value == nil {
		return 0
	}
	return HashFeature(*value, DefaultBuckets)
}
