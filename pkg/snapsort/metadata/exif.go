package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func imageTimestamp(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var src io.Reader = br
	if sig, _ := br.Peek(len(pngSignature)); bytes.Equal(sig, pngSignature) {
		raw, err := pngExifChunk(br)
		if err != nil {
			return "", err
		}
		src = bytes.NewReader(raw)
	}

	x, err := exif.Decode(src)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return "", fmt.Errorf("%w: decoding exif: %v", ErrNoTimestamp, err)
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return "", fmt.Errorf("%w: DateTimeOriginal missing", ErrNoTimestamp)
	}
	val, err := tag.StringVal()
	if err != nil {
		return "", fmt.Errorf("%w: DateTimeOriginal: %v", ErrNoTimestamp, err)
	}

	val = strings.TrimRight(val, "\x00 \t\r\n")
	if val == "" {
		return "", fmt.Errorf("%w: DateTimeOriginal empty", ErrNoTimestamp)
	}
	return val, nil
}

// pngExifChunk returns the payload of the first eXIf chunk, which holds a
// bare TIFF stream. Reading stops at IDAT: the chunk must precede image data.
func pngExifChunk(r io.Reader) ([]byte, error) {
	if _, err := io.CopyN(io.Discard, r, int64(len(pngSignature))); err != nil {
		return nil, fmt.Errorf("%w: reading png signature: %v", ErrNoTimestamp, err)
	}

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: png has no eXIf chunk", ErrNoTimestamp)
			}
			return nil, err
		}
		length := binary.BigEndian.Uint32(hdr[:4])
		switch string(hdr[4:]) {
		case "eXIf":
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("%w: truncated eXIf chunk: %v", ErrNoTimestamp, err)
			}
			return data, nil
		case "IDAT", "IEND":
			return nil, fmt.Errorf("%w: png has no eXIf chunk", ErrNoTimestamp)
		}
		// Skip data plus CRC.
		if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
			return nil, fmt.Errorf("%w: truncated png chunk: %v", ErrNoTimestamp, err)
		}
	}
}
