package envelope

import "bytes"

// readBytes returns b[*off : *off+n] and advances off. The slice aliases b.
func readBytes(b []byte, off *int, n int, code ErrorCode, stage string) ([]byte, error) {
	if n < 0 {
		return nil, parseerr(code, stage, *off, "negative length")
	}
	if *off > len(b) || n > len(b)-*off {
		return nil, parseerr(code, stage, *off, "slice runs past end of script")
	}
	v := b[*off : *off+n]
	*off += n
	return v, nil
}

// scanByte returns the index of the first occurrence of c in b at or after
// from, or -1.
func scanByte(b []byte, from int, c byte) int {
	if from < 0 || from >= len(b) {
		return -1
	}
	i := bytes.IndexByte(b[from:], c)
	if i < 0 {
		return -1
	}
	return from + i
}
