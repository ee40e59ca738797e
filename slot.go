package seqring

import "code.hybscloud.com/atomix"

// slot is one seqlock cell. seq is even while the payload words are stable
// and odd while the single writer rewrites them. The payload is a plain-data
// T with no pointers, copied word by word.
type slot struct {
	seq   atomix.Uint64   // even: stable, odd: write in progress; 2k after the k-th write
	words []atomix.Uint64 // payload bytes of one T
}

// expectedStamp returns the seq the slot at index must carry for a cursor
// whose last consumed stamp is baseline.
func expectedStamp(index, baseline uint64) uint64 {
	if index == 0 {
		// slot 0 opens a new lap
		return baseline + 2
	}
	return baseline
}

// position maps a cursor state to the absolute message number it expects next.
func position(index, baseline, capacity uint64) uint64 {
	lap := expectedStamp(index, baseline)/2 - 1
	return lap*capacity + index
}
