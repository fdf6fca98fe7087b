package bsdiff

// control is one (diffLen, extraLen, seek) triple: apply diffLen bytes of
// old+diff, then extraLen literal bytes, then seek old by the given amount
// before the next triple's diff block.
type control struct {
	DiffLen  int64
	ExtraLen int64
	Seek     int64
}

type segment struct {
	diffLen  int
	extraLen int
	oldStart int
}

// buildSegments turns a list of matches into a continuous sequence of
// segments covering every byte of new exactly once. It always starts with a
// zero-length anchor segment whose only purpose is to carry, via its own
// seek, the jump from old position 0 to wherever the real data starts -
// this lets every later segment's seek be computed purely from
// (this segment's oldStart+diffLen) -> (next segment's oldStart), with no
// special case for the first real segment.
func buildSegments(new []byte, matches []matchSpan) []segment {
	segs := []segment{{diffLen: 0, extraLen: 0, oldStart: 0}}

	newPos := 0
	oldHint := 0

	for i, m := range matches {
		if gap := m.newStart - newPos; gap > 0 {
			segs = append(segs, segment{diffLen: 0, extraLen: gap, oldStart: oldHint})
			newPos += gap
		}

		nextStart := len(new)
		if i+1 < len(matches) {
			nextStart = matches[i+1].newStart
		}
		extraLen := nextStart - (m.newStart + m.length)

		segs = append(segs, segment{diffLen: m.length, extraLen: extraLen, oldStart: m.oldStart})
		newPos = m.newStart + m.length + extraLen
		oldHint = m.oldStart + m.length
	}

	if newPos < len(new) {
		segs = append(segs, segment{diffLen: 0, extraLen: len(new) - newPos, oldStart: oldHint})
	}

	return segs
}

// diff computes the control/diff/extra streams that reconstruct new from
// old. diffBytes holds, for every matched byte, new-old (mod 256); extra
// holds the literal bytes that have no correspondence in old.
func diff(old, new []byte) (controls []control, diffBytes, extraBytes []byte) {
	segs := buildSegments(new, findMatches(old, new))

	newPos := 0
	for i, seg := range segs {
		for k := 0; k < seg.diffLen; k++ {
			diffBytes = append(diffBytes, new[newPos+k]-old[seg.oldStart+k])
		}
		newPos += seg.diffLen

		extraBytes = append(extraBytes, new[newPos:newPos+seg.extraLen]...)
		newPos += seg.extraLen

		var seek int64
		if i+1 < len(segs) {
			seek = int64(segs[i+1].oldStart - (seg.oldStart + seg.diffLen))
		}
		controls = append(controls, control{
			DiffLen:  int64(seg.diffLen),
			ExtraLen: int64(seg.extraLen),
			Seek:     seek,
		})
	}

	return controls, diffBytes, extraBytes
}
