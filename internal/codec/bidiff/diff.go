package bidiff

// op is one (copyLen, insertLen, seek) triple: copy copyLen bytes straight
// from old at the current position, then insertLen literal bytes, then seek
// old by the given amount before the next op.
type op struct {
	CopyLen   int64
	InsertLen int64
	Seek      int64
}

type segment struct {
	copyLen   int
	insertLen int
	oldStart  int
}

func buildSegments(new []byte, matches []matchSpan) []segment {
	segs := []segment{{copyLen: 0, insertLen: 0, oldStart: 0}}

	newPos := 0
	oldHint := 0

	for i, m := range matches {
		if gap := m.newStart - newPos; gap > 0 {
			segs = append(segs, segment{copyLen: 0, insertLen: gap, oldStart: oldHint})
			newPos += gap
		}

		nextStart := len(new)
		if i+1 < len(matches) {
			nextStart = matches[i+1].newStart
		}
		insertLen := nextStart - (m.newStart + m.length)

		segs = append(segs, segment{copyLen: m.length, insertLen: insertLen, oldStart: m.oldStart})
		newPos = m.newStart + m.length + insertLen
		oldHint = m.oldStart + m.length
	}

	if newPos < len(new) {
		segs = append(segs, segment{copyLen: 0, insertLen: len(new) - newPos, oldStart: oldHint})
	}

	return segs
}

func diff(old, new []byte) (ops []op, insertBytes []byte) {
	segs := buildSegments(new, findMatches(old, new))

	newPos := 0
	for i, seg := range segs {
		newPos += seg.copyLen

		insertBytes = append(insertBytes, new[newPos:newPos+seg.insertLen]...)
		newPos += seg.insertLen

		var seek int64
		if i+1 < len(segs) {
			seek = int64(segs[i+1].oldStart - (seg.oldStart + seg.copyLen))
		}
		ops = append(ops, op{
			CopyLen:   int64(seg.copyLen),
			InsertLen: int64(seg.insertLen),
			Seek:      seek,
		})
	}

	return ops, insertBytes
}
