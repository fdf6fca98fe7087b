// Package codec defines the shared on-disk contract used by the three
// patch codecs (bsdiff, bidiff, zstd-dictionary): a fixed 16-byte ASCII
// magic, an 8-byte little-endian uncompressed payload size, then a
// compressed payload whose internal shape is codec-specific.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/obsproject/obs-updater-builder/internal/hashengine"
)

// MagicSize is the fixed length of every codec's header magic.
const MagicSize = 16

// Codec is the shared contract every patch format implements.
type Codec interface {
	CreatePatch(oldPath, newPath, patchPath string) (hashengine.FileInfo, error)
	ApplyPatch(oldPath, outPath, patchPath string) (hashengine.FileInfo, error)
}

// WriteHeader writes the fixed-size magic and the uncompressed payload size
// that precede every codec's compressed payload.
func WriteHeader(w io.Writer, magic string, uncompressedSize uint64) error {
	if len(magic) != MagicSize {
		return fmt.Errorf("codec: magic must be %d bytes, got %d", MagicSize, len(magic))
	}
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uncompressedSize)
	_, err := w.Write(sizeBuf[:])
	return err
}

// ReadHeader reads the header written by WriteHeader, verifies the magic
// matches wantMagic, and returns the stored uncompressed size.
func ReadHeader(r io.Reader, wantMagic string) (size uint64, err error) {
	buf := make([]byte, MagicSize+8)
	if _, err = io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	got := string(buf[:MagicSize])
	if got != wantMagic {
		return 0, fmt.Errorf("codec: unexpected magic %q, want %q", got, wantMagic)
	}
	return binary.LittleEndian.Uint64(buf[MagicSize:]), nil
}

// FileInfo is hashengine.FileInfo, re-exported so codec callers don't need
// to import hashengine directly just to receive a CreatePatch/ApplyPatch result.
type FileInfo = hashengine.FileInfo
