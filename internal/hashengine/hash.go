package hashengine

import (
	"context"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/progress"
	"github.com/obsproject/obs-updater-builder/internal/workerpool"
)

const hashSize = 20
const readBufSize = 1 << 16

// HashFile streams path in 64 KiB blocks through Blake2b-20 and returns its
// FileInfo. Fails with an I/O error on open/read failure.
func HashFile(path string) (FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, errors.NewIOError("open", path, err)
	}
	defer f.Close()

	h, err := blake2b.New(hashSize, nil)
	if err != nil {
		return FileInfo{}, err
	}

	buf := make([]byte, readBufSize)
	var size uint64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			size += uint64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return FileInfo{}, errors.NewIOError("read", path, readErr)
		}
	}

	return FileInfo{
		Hash: hex.EncodeToString(h.Sum(nil)),
		Size: size,
	}, nil
}

// HashDir walks root with an effective min-depth of 2: direct children of
// root are ignored, only files nested within a subdirectory of root are
// hashed. Paths are reported relative to root with forward slashes. Cache
// entries are adopted verbatim by path; everything else is hashed in a
// worker pool. maxWorkers <= 0 uses workerpool.DefaultMaxWorkers. prog may
// be nil.
func HashDir(ctx context.Context, root string, cache HashMap, maxWorkers int, prog *progress.Reporter) (HashMap, error) {
	hashes := make(HashMap)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		depth := strings.Count(filepath.ToSlash(rel), "/") + 1
		if depth < 2 {
			return nil
		}
		relSlash := filepath.ToSlash(rel)

		if cache != nil {
			if cached, ok := cache[relSlash]; ok {
				hashes[relSlash] = cached
				return nil
			}
		}
		hashes[relSlash] = FileInfo{}
		return nil
	})
	if err != nil {
		return nil, errors.NewIOError("walk", root, err)
	}

	var toHash []string
	for relPath, info := range hashes {
		if info.Hash == "" {
			toHash = append(toHash, relPath)
		}
	}
	if len(toHash) == 0 {
		return hashes, nil
	}

	if prog != nil {
		prog.Start(len(toHash))
		defer prog.Done()
	}

	pool := workerpool.New[hashResult](maxWorkers)
	tasks := make([]workerpool.Task[hashResult], len(toHash))
	for i, relPath := range toHash {
		relPath := relPath
		tasks[i] = func(ctx context.Context) (hashResult, error) {
			info, err := HashFile(filepath.Join(root, filepath.FromSlash(relPath)))
			if prog != nil {
				prog.Increment()
			}
			return hashResult{relPath: relPath, info: info}, err
		}
	}

	for _, res := range pool.Run(ctx, tasks) {
		if res.Error != nil {
			return nil, res.Error
		}
		hashes[res.Value.relPath] = res.Value.info
	}

	return hashes, nil
}

type hashResult struct {
	relPath string
	info    FileInfo
}

// Logger is a minimal interface satisfied by *logging.Logger, used so
// callers that only have a nop logger don't need to import zap directly.
type Logger interface {
	Info(msg string, fields ...logging.Field)
	Warn(msg string, fields ...logging.Field)
}
