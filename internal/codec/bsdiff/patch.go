package bsdiff

import "fmt"

// apply reconstructs new (of the given size) from old plus the
// control/diff/extra streams produced by diff.
func apply(old []byte, controls []control, diffBytes, extraBytes []byte, newSize int64) ([]byte, error) {
	out := make([]byte, 0, newSize)
	oldPos := 0
	diffPos := 0
	extraPos := 0

	for _, c := range controls {
		end := oldPos + int(c.DiffLen)
		if end > len(old) || diffPos+int(c.DiffLen) > len(diffBytes) {
			return nil, fmt.Errorf("bsdiff: diff block overruns input at oldPos=%d diffLen=%d", oldPos, c.DiffLen)
		}
		for i := 0; i < int(c.DiffLen); i++ {
			out = append(out, old[oldPos+i]+diffBytes[diffPos+i])
		}
		oldPos += int(c.DiffLen)
		diffPos += int(c.DiffLen)

		if extraPos+int(c.ExtraLen) > len(extraBytes) {
			return nil, fmt.Errorf("bsdiff: extra block overruns input at extraPos=%d extraLen=%d", extraPos, c.ExtraLen)
		}
		out = append(out, extraBytes[extraPos:extraPos+int(c.ExtraLen)]...)
		extraPos += int(c.ExtraLen)

		oldPos += int(c.Seek)
	}

	if int64(len(out)) != newSize {
		return nil, fmt.Errorf("bsdiff: patched output is %d bytes, expected %d", len(out), newSize)
	}
	return out, nil
}
