// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mask

// IsBinary reports whether every byte of data is Off or On.
func IsBinary(data []uint8) bool {
	return FirstNonBinary(data) < 0
}

// FirstNonBinary returns the offset of the first byte that is neither Off
// nor On, or -1.
func FirstNonBinary(data []uint8) int {
	for i, v := range data {
		if v != Off && v != On {
			return i
		}
	}
	return -1
}

// Repair clamps every byte to the nearer of Off and On and returns how many
// bytes changed. Ties (127.5 does not occur) resolve by v >= 128 to On.
func Repair(data []uint8) int {
	n := 0
	for i, v := range data {
		if v == Off || v == On {
			continue
		}
		if v >= 128 {
			data[i] = On
		} else {
			data[i] = Off
		}
		n++
	}
	return n
}
