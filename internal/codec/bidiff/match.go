// Package bidiff implements the bidiff+LZMA patch codec. It never attempts
// approximate/fuzzy matches extended by a per-byte "add" correction - every
// match it records is an exact run, so the format only needs copy and insert
// spans, not an add stream.
package bidiff

const minMatch = 16
const maxCandidates = 8

func fnv1a(b []byte) uint64 {
	var h uint64 = 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}

func buildIndex(old []byte) map[uint64][]int32 {
	idx := make(map[uint64][]int32)
	if len(old) < minMatch {
		return idx
	}
	for i := 0; i+minMatch <= len(old); i++ {
		h := fnv1a(old[i : i+minMatch])
		bucket := idx[h]
		if len(bucket) < maxCandidates {
			idx[h] = append(bucket, int32(i))
		}
	}
	return idx
}

func extendMatch(old, new []byte, oldPos, newPos int) int {
	maxLen := len(old) - oldPos
	if rem := len(new) - newPos; rem < maxLen {
		maxLen = rem
	}
	l := 0
	for l < maxLen && old[oldPos+l] == new[newPos+l] {
		l++
	}
	return l
}

type matchSpan struct {
	newStart int
	oldStart int
	length   int
}

func findMatches(old, new []byte) []matchSpan {
	idx := buildIndex(old)
	var matches []matchSpan

	newPos := 0
	for newPos+minMatch <= len(new) {
		h := fnv1a(new[newPos : newPos+minMatch])
		bestLen, bestOld := 0, -1
		for _, cand := range idx[h] {
			l := extendMatch(old, new, int(cand), newPos)
			if l > bestLen {
				bestLen = l
				bestOld = int(cand)
			}
		}
		if bestLen >= minMatch {
			matches = append(matches, matchSpan{newStart: newPos, oldStart: bestOld, length: bestLen})
			newPos += bestLen
		} else {
			newPos++
		}
	}
	return matches
}
