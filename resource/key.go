package resource

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/gogpu/gputypes"
)

// UniqueKey identifies resource content. Two resources with equal unique keys
// hold the same pixels, so at most one of them lives in a cache at a time.
//
// The zero value is invalid.
type UniqueKey struct {
	hash uint64
	data string
}

// MakeUniqueKey builds a key from a domain string and a list of integers.
// Keys from different domains never compare equal.
func MakeUniqueKey(domain string, parts ...uint64) UniqueKey {
	buf := make([]byte, 0, len(domain)+1+8*len(parts))
	buf = append(buf, domain...)
	buf = append(buf, 0)
	for _, p := range parts {
		buf = binary.LittleEndian.AppendUint64(buf, p)
	}
	h := fnv.New64a()
	_, _ = h.Write(buf)
	return UniqueKey{hash: h.Sum64(), data: string(buf)}
}

// IsValid reports whether the key was built by MakeUniqueKey.
func (k UniqueKey) IsValid() bool { return k.data != "" }

// Hash returns the precomputed FNV-1a hash of the key.
func (k UniqueKey) Hash() uint64 { return k.hash }

// ScratchKey groups resources that can stand in for each other. It is derived
// from a descriptor and never set by hand.
type ScratchKey struct {
	kind    Kind
	width   int
	height  int
	format  gputypes.TextureFormat
	samples uint32
	size    uint64
	usage   uint64
}

// IsValid reports whether the key was derived from a descriptor.
func (k ScratchKey) IsValid() bool {
	if k.kind == KindBuffer {
		return k.size > 0
	}
	return k.width > 0 && k.height > 0
}
