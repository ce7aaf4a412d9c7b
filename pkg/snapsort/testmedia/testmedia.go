// Package testmedia builds minimal media files carrying capture timestamps,
// for tests across snapsort packages.
package testmedia

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	tagExifIFD          = 0x8769
	tagDateTimeOriginal = 0x9003
	typeASCII           = 2
	typeLong            = 4
)

// TIFF returns a little-endian TIFF stream whose Exif sub-IFD holds
// DateTimeOriginal = ts.
func TIFF(ts string) []byte {
	val := append([]byte(ts), 0)

	var b bytes.Buffer
	le := binary.LittleEndian
	w := func(v any) { _ = binary.Write(&b, le, v) }

	const ifd0 = 8
	const exifIFD = ifd0 + 2 + 12 + 4
	const data = exifIFD + 2 + 12 + 4

	b.WriteString("II")
	w(uint16(42))
	w(uint32(ifd0))

	w(uint16(1))
	w(uint16(tagExifIFD))
	w(uint16(typeLong))
	w(uint32(1))
	w(uint32(exifIFD))
	w(uint32(0))

	w(uint16(1))
	w(uint16(tagDateTimeOriginal))
	w(uint16(typeASCII))
	w(uint32(len(val)))
	if len(val) <= 4 {
		var inline [4]byte
		copy(inline[:], val)
		b.Write(inline[:])
	} else {
		w(uint32(data))
	}
	w(uint32(0))

	if len(val) > 4 {
		b.Write(val)
	}
	return b.Bytes()
}

// JPEG returns a JPEG stream with an Exif APP1 segment for ts followed by
// body. An empty ts omits the APP1 segment.
func JPEG(ts, body string) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	if ts != "" {
		seg := append([]byte("Exif\x00\x00"), TIFF(ts)...)
		b.Write([]byte{0xFF, 0xE1})
		_ = binary.Write(&b, binary.BigEndian, uint16(len(seg)+2))
		b.Write(seg)
	}
	b.WriteString(body)
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

// PNG returns a PNG stream with an eXIf chunk for ts and a tEXt chunk
// holding body. An empty ts omits the eXIf chunk.
func PNG(ts, body string) []byte {
	var b bytes.Buffer
	b.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], 1)
	binary.BigEndian.PutUint32(ihdr[4:], 1)
	ihdr[8] = 8
	writeChunk(&b, "IHDR", ihdr)
	if ts != "" {
		writeChunk(&b, "eXIf", TIFF(ts))
	}
	writeChunk(&b, "tEXt", append([]byte("Comment\x00"), body...))
	writeChunk(&b, "IDAT", []byte{0x78, 0x9c, 0x62, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01})
	writeChunk(&b, "IEND", nil)
	return b.Bytes()
}

func writeChunk(b *bytes.Buffer, typ string, data []byte) {
	_ = binary.Write(b, binary.BigEndian, uint32(len(data)))
	b.WriteString(typ)
	b.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	_ = binary.Write(b, binary.BigEndian, crc.Sum32())
}

var mp4Epoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// MP4 returns an ftyp + moov/mvhd (version 0) stream created at t, followed
// by a free box holding body. A zero t writes creation time 0.
func MP4(t time.Time, body string) []byte {
	var secs uint32
	if !t.IsZero() {
		secs = uint32(t.Sub(mp4Epoch) / time.Second)
	}

	var mvhd bytes.Buffer
	be := binary.BigEndian
	w := func(v any) { _ = binary.Write(&mvhd, be, v) }
	w(uint32(0))         // version + flags
	w(secs)              // creation
	w(secs)              // modification
	w(uint32(1000))      // timescale
	w(uint32(0))         // duration
	w(int32(0x00010000)) // rate
	w(int16(0x0100))     // volume
	w(int16(0))
	w([2]uint32{})
	w([9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000})
	w([6]int32{})
	w(uint32(2)) // next track ID

	var b bytes.Buffer
	box := func(typ string, payload []byte) {
		_ = binary.Write(&b, be, uint32(8+len(payload)))
		b.WriteString(typ)
		b.Write(payload)
	}
	box("ftyp", []byte("isom\x00\x00\x02\x00isom"))

	var moov bytes.Buffer
	_ = binary.Write(&moov, be, uint32(8+mvhd.Len()))
	moov.WriteString("mvhd")
	moov.Write(mvhd.Bytes())
	box("moov", moov.Bytes())
	box("free", []byte(body))
	return b.Bytes()
}

// Write creates path with data, making parent directories.
func Write(tb testing.TB, path string, data []byte) string {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("writing %s: %v", path, err)
	}
	return path
}
