package router

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// hashSeed is fixed so that partitioning is deterministic across every
// node of the ensemble.
const hashSeed = 0

// Hash computes the stable 32-bit hash used by both partitioners.
func Hash(data []byte) uint32 {
	return murmur3.Sum32WithSeed(data, hashSeed)
}

// hashKey hashes the concatenation of bucket and key.
func hashKey(bucket, key string) uint32 {
	data := make([]byte, 0, len(bucket)+len(key))
	data = append(data, bucket...)
	data = append(data, key...)
	return Hash(data)
}

// hashSlot hashes a node name together with a ring slot index.
func hashSlot(nodeName string, slotIndex int) uint32 {
	data := make([]byte, 0, len(nodeName)+4)
	data = append(data, nodeName...)
	data = binary.BigEndian.AppendUint32(data, uint32(slotIndex))
	return Hash(data)
}
