// Package zstdiff implements the zstd-dictionary patch codec: new is
// compressed with old supplied as a raw content dictionary, at the
// compressor's best-compression tier. Unlike bsdiff/bidiff there is no
// hand-rolled diff algorithm here - zstd's dictionary matcher already finds
// the overlap between old and new, so this package is a thin, idiomatic
// wrapper around klauspost/compress/zstd.
package zstdiff

import (
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/obsproject/obs-updater-builder/internal/codec"
	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/hashengine"
)

// Magic identifies a zstd-dictionary patch file.
const Magic = "BOUF//ZSTD//DICT"

func init() {
	if len(Magic) != codec.MagicSize {
		panic("zstdiff: Magic must be 16 bytes")
	}
}

// Codec implements codec.Codec for the zstd-dictionary format.
type Codec struct{}

// CreatePatch compresses newPath using oldPath's contents as a zstd
// dictionary and writes the result to patchPath, returning the patch
// file's own hash/size.
func (Codec) CreatePatch(oldPath, newPath, patchPath string) (hashengine.FileInfo, error) {
	oldBytes, err := os.ReadFile(oldPath)
	if err != nil {
		return hashengine.FileInfo{}, errors.NewIOError("read", oldPath, err)
	}
	newBytes, err := os.ReadFile(newPath)
	if err != nil {
		return hashengine.FileInfo{}, errors.NewIOError("read", newPath, err)
	}

	f, err := os.Create(patchPath)
	if err != nil {
		return hashengine.FileInfo{}, errors.NewIOError("create", patchPath, err)
	}
	defer f.Close()

	if err := codec.WriteHeader(f, Magic, uint64(len(newBytes))); err != nil {
		return hashengine.FileInfo{}, errors.NewCodecError("zstdiff", patchPath, err)
	}

	enc, err := zstd.NewWriter(f,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderDict(oldBytes),
	)
	if err != nil {
		return hashengine.FileInfo{}, errors.NewCodecError("zstdiff", patchPath, err)
	}
	// Streaming Write/Close (as opposed to EncodeAll) never knows the total
	// input size up front, so the frame header carries no content-size field.
	if _, err := enc.Write(newBytes); err != nil {
		return hashengine.FileInfo{}, errors.NewCodecError("zstdiff", patchPath, err)
	}
	if err := enc.Close(); err != nil {
		return hashengine.FileInfo{}, errors.NewCodecError("zstdiff", patchPath, err)
	}

	return hashengine.HashFile(patchPath)
}

// ApplyPatch decompresses a zstd-dictionary patch at patchPath against
// oldPath and writes the result to outPath, returning its hash/size.
func (Codec) ApplyPatch(oldPath, outPath, patchPath string) (hashengine.FileInfo, error) {
	oldBytes, err := os.ReadFile(oldPath)
	if err != nil {
		return hashengine.FileInfo{}, errors.NewIOError("read", oldPath, err)
	}

	pf, err := os.Open(patchPath)
	if err != nil {
		return hashengine.FileInfo{}, errors.NewIOError("open", patchPath, err)
	}
	defer pf.Close()

	newSize, err := codec.ReadHeader(pf, Magic)
	if err != nil {
		return hashengine.FileInfo{}, errors.NewCodecError("zstdiff", patchPath, err)
	}

	dec, err := zstd.NewReader(pf, zstd.WithDecoderDicts(oldBytes))
	if err != nil {
		return hashengine.FileInfo{}, errors.NewCodecError("zstdiff", patchPath, err)
	}
	defer dec.Close()

	newBytes, err := io.ReadAll(dec)
	if err != nil {
		return hashengine.FileInfo{}, errors.NewCodecError("zstdiff", patchPath, err)
	}
	if uint64(len(newBytes)) != newSize {
		return hashengine.FileInfo{}, errors.NewCodecError("zstdiff", patchPath,
			errors.New("decompressed size does not match header", errors.ExitCodecError))
	}

	if err := os.WriteFile(outPath, newBytes, 0644); err != nil {
		return hashengine.FileInfo{}, errors.NewIOError("write", outPath, err)
	}

	return hashengine.HashFile(outPath)
}
