// Package hashengine computes content hashes of files and of the code
// sections of PE binaries, and persists per-directory hash caches.
package hashengine

// FileInfo is the content identity of one file: its Blake2b-20 hex hash and
// its on-disk size.
type FileInfo struct {
	Hash string `json:"hash"`
	Size uint64 `json:"size"`
}

// HashMap maps a forward-slash relative path to its FileInfo.
type HashMap map[string]FileInfo

// BinaryExtensions lists the file extensions eligible for code-section
// hashing instead of whole-file hashing.
var BinaryExtensions = []string{"exe", "pyd", "dll"}
