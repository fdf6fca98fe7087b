package bidiff

import "fmt"

func apply(old []byte, ops []op, insertBytes []byte, newSize int64) ([]byte, error) {
	out := make([]byte, 0, newSize)
	oldPos := 0
	insertPos := 0

	for _, o := range ops {
		end := oldPos + int(o.CopyLen)
		if end > len(old) {
			return nil, fmt.Errorf("bidiff: copy block overruns old file at oldPos=%d copyLen=%d", oldPos, o.CopyLen)
		}
		out = append(out, old[oldPos:end]...)
		oldPos = end

		if insertPos+int(o.InsertLen) > len(insertBytes) {
			return nil, fmt.Errorf("bidiff: insert block overruns input at insertPos=%d insertLen=%d", insertPos, o.InsertLen)
		}
		out = append(out, insertBytes[insertPos:insertPos+int(o.InsertLen)]...)
		insertPos += int(o.InsertLen)

		oldPos += int(o.Seek)
	}

	if int64(len(out)) != newSize {
		return nil, fmt.Errorf("bidiff: patched output is %d bytes, expected %d", len(out), newSize)
	}
	return out, nil
}
