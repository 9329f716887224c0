// Package color assigns a deterministic RGB color to a cluster id, for
// PLY face-color export.
package color

import "hash/fnv"

// FromClusterID hashes id (its original, pre-relabelling id, so colors
// stay stable across re-indexing passes) into an RGB triple.
func FromClusterID(id int) [3]uint8 {
	h := fnv.New32a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(id >> (8 * i))
	}
	h.Write(buf[:])
	sum := h.Sum32()
	return [3]uint8{
		byte(sum),
		byte(sum >> 8),
		byte(sum >> 16),
	}
}
