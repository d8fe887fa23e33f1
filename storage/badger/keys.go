package badger

import (
	"encoding/binary"

	"github.com/poiesic/lectern/core"
)

const (
	collectionMetaPrefix   = "colmeta"
	collectionRecordPrefix = "colrec"
	generationSeq          = "colgenseq"
)

func makeMetaKey(name string) []byte {
	return []byte(collectionMetaPrefix + ":" + name)
}

// makeGenerationPrefix builds colrec:<len(name)><name><generation>.
// The name is length-prefixed so no collection's prefix is a prefix of another's.
func makeGenerationPrefix(name string, generation uint64) []byte {
	prefix := collectionRecordPrefix + ":"
	buf := make([]byte, len(prefix)+2+len(name)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(name)))
	offset += 2
	offset += copy(buf[offset:], name)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], generation)
	return buf
}

func makeRecordKey(name string, generation uint64, id core.ID) []byte {
	prefix := makeGenerationPrefix(name, generation)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
