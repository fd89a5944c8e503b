package fileutil

import (
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"crypto/sha256"
)

// Digest captures the integrity identity of one file: both checksums plus
// the byte count, computed in a single pass.
type Digest struct {
	CRC32  uint32
	SHA256 string
	Size   int64
}

// CRC32Hex renders the CRC in the conventional 8-digit form.
func (d Digest) CRC32Hex() string {
	return fmt.Sprintf("%08x", d.CRC32)
}

// DigestWriter accumulates a Digest from streamed writes. The zero value is
// not usable; call NewDigestWriter.
type DigestWriter struct {
	crc  hash.Hash32
	sha  hash.Hash
	size int64
}

func NewDigestWriter() *DigestWriter {
	return &DigestWriter{crc: crc32.NewIEEE(), sha: sha256.New()}
}

func (w *DigestWriter) Write(p []byte) (int, error) {
	w.crc.Write(p)
	w.sha.Write(p)
	w.size += int64(len(p))
	return len(p), nil
}

func (w *DigestWriter) Sum() Digest {
	return Digest{
		CRC32:  w.crc.Sum32(),
		SHA256: hex.EncodeToString(w.sha.Sum(nil)),
		Size:   w.size,
	}
}

// DigestFile computes the digest of an existing file.
func DigestFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()

	w := NewDigestWriter()
	if _, err := io.Copy(w, f); err != nil {
		return Digest{}, fmt.Errorf("digest %s: %w", path, err)
	}
	return w.Sum(), nil
}

// CopyFile copies src to dst, fsyncing before close, and returns the digest
// of the bytes written. dst is created with its parent directories.
func CopyFile(dst, src string) (Digest, error) {
	in, err := os.Open(src)
	if err != nil {
		return Digest{}, err
	}
	defer in.Close()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return Digest{}, err
	}
	out, err := os.Create(dst)
	if err != nil {
		return Digest{}, err
	}

	w := NewDigestWriter()
	if _, err := io.Copy(io.MultiWriter(out, w), in); err != nil {
		out.Close()
		os.Remove(dst)
		return Digest{}, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return Digest{}, err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return Digest{}, err
	}
	return w.Sum(), nil
}

// CommitFile moves a fully written staging file to its final name. Rename is
// atomic on the same filesystem; a cross-device staging directory falls back
// to copy-and-delete with the copy landing under a temporary name first.
func CommitFile(staging, final string) error {
	if err := EnsureDir(filepath.Dir(final)); err != nil {
		return err
	}
	if err := os.Rename(staging, final); err == nil {
		return nil
	}
	tmp := final + ".partial"
	if _, err := CopyFile(tmp, staging); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Remove(staging)
}

// EnsureDir creates a directory and its parents.
func EnsureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
