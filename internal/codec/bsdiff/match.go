package bsdiff

// minMatch is the shortest run of identical bytes worth indexing and
// reporting as a match. Below this length the overhead of a control triple
// outweighs the savings of not storing the bytes as literals.
const minMatch = 16

// maxCandidates bounds how many old-file positions we probe per new-file
// k-mer so a pathological, highly repetitive input can't turn matching into
// quadratic behavior.
const maxCandidates = 8

func fnv1a(b []byte) uint64 {
	var h uint64 = 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}

// buildIndex maps every minMatch-byte window of old to the (capped) list of
// positions it occurs at, keyed by its FNV-1a hash.
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

// extendMatch returns how many consecutive bytes old[oldPos:] and
// new[newPos:] have in common.
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

// findMatches greedily scans new left to right, looking up each minMatch
// window in old's index and keeping the longest exact extension among the
// candidate positions. This is an LZ-style approximation of bsdiff's classic
// suffix-sort search: it will not always find the globally optimal set of
// matches, but every match it reports is an exact byte-for-byte
// correspondence, which is what the diff/patch format requires for
// correctness.
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
