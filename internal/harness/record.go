package harness

// recordPad widens Record across several words so a copy mixing two pushes
// is caught by Valid.
const recordPad = 6

// Record is the stress payload.
type Record struct {
	Seq   uint64
	Check uint64
	Pad   [recordPad]uint64
}

func newRecord(seq uint64) Record {
	r := Record{Seq: seq, Check: checksum(seq)}
	for i := range r.Pad {
		r.Pad[i] = seq
	}
	return r
}

// Valid reports whether every word of r belongs to the same push.
func (r Record) Valid() bool {
	if r.Check != checksum(r.Seq) {
		return false
	}
	for _, p := range r.Pad {
		if p != r.Seq {
			return false
		}
	}
	return true
}

// checksum is a 64-bit mix (splitmix64 finalizer).
func checksum(seq uint64) uint64 {
	z := seq + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
