package boltstore

import (
	"encoding/binary"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// Bucket names.
var (
	bucketMeta      = []byte("meta")
	bucketObjects   = []byte("objects")
	bucketAttrDefs  = []byte("attrdefs")
	bucketPlayers   = []byte("players")
	bucketUFuncs    = []byte("ufuncs")
	bucketRedirects = []byte("redirects")
)

var allBuckets = [][]byte{
	bucketMeta, bucketObjects, bucketAttrDefs, bucketPlayers, bucketUFuncs, bucketRedirects,
}

// Meta keys.
var (
	keySchema   = []byte("schema")
	keyNextAttr = []byte("nextattr")
)

// schemaVersion is bumped whenever a stored record changes shape.
const schemaVersion = 1

// refToKey converts a DBRef to an 8-byte big-endian key.
// The offset keeps negative refs (Nothing, Home) sorting below #0.
func refToKey(ref gamedb.DBRef) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(int64(ref)+1<<32))
	return buf
}

func keyToRef(b []byte) gamedb.DBRef {
	v := binary.BigEndian.Uint64(b)
	return gamedb.DBRef(int64(v) - 1<<32)
}

func intToKey(n int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func keyToInt(b []byte) int {
	if len(b) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(b))
}
