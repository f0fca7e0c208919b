package flit

// LineWords is the number of 64-bit words in a line.
const LineWords = LineBytes / 8

// Line is the payload of a flit, one full storage line.
type Line [LineWords]uint64

// SeededLine returns a recognizable line whose i-th word is seed<<32 | i.
func SeededLine(seed uint32) Line {
	var l Line
	for i := range l {
		l[i] = uint64(seed)<<32 | uint64(i)
	}

	return l
}
