package tileindex

import (
	"encoding/binary"
	"io"

	"github.com/minio/highwayhash"
	"github.com/tilealign/tilealign/tlerr"
)

// oocSignature identifies the binary ooc format (spec.md §4.1 "The ooc
// file is a binary list of tile values with a signature and tile size
// header").
var oocSignature = [8]byte{'T', 'L', 'A', 'L', 'O', 'O', 'C', '1'}

// highwayKey is a fixed 32-byte key for the HighwayHash-256 checksum
// trailer (github.com/minio/highwayhash). It need not be secret — the
// checksum only needs to catch accidental truncation/corruption, not
// resist a deliberate forgery — so a fixed key keeps ooc files
// reproducible across runs.
var highwayKey = make([]byte, 32)

// WriteOOC writes tiles (as produced by Index.OverrepresentedTiles) to w
// in the format spec.md §4.1 describes: signature, tileSize, count, then
// big-endian tile values, followed by a HighwayHash-256 checksum of
// everything written so far.
func WriteOOC(w io.Writer, tileSize int, tiles []Tile) error {
	h, err := highwayhash.New(highwayKey)
	if err != nil {
		return tlerr.NewIO("initializing ooc checksum", err)
	}
	mw := io.MultiWriter(w, h)

	if _, err := mw.Write(oocSignature[:]); err != nil {
		return tlerr.NewIO("writing ooc signature", err)
	}
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(tileSize))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(tiles)))
	if _, err := mw.Write(hdr[:]); err != nil {
		return tlerr.NewIO("writing ooc header", err)
	}
	buf := make([]byte, 8)
	for _, t := range tiles {
		binary.BigEndian.PutUint64(buf, uint64(t))
		if _, err := mw.Write(buf); err != nil {
			return tlerr.NewIO("writing ooc tile value", err)
		}
	}
	if _, err := w.Write(h.Sum(nil)); err != nil {
		return tlerr.NewIO("writing ooc checksum", err)
	}
	return nil
}

// ReadOOC reads a file written by WriteOOC. It rejects files whose
// signature or checksum mismatch, and whose tileSize does not equal
// wantTileSize (spec.md "reading rejects files whose tileSize does not
// match").
func ReadOOC(data []byte, wantTileSize int) ([]Tile, error) {
	const trailerSize = 32
	if len(data) < 8+8+trailerSize {
		return nil, tlerr.NewFormat("ooc file too short (%d bytes)", len(data))
	}
	body, trailer := data[:len(data)-trailerSize], data[len(data)-trailerSize:]

	h, err := highwayhash.New(highwayKey)
	if err != nil {
		return nil, tlerr.NewIO("initializing ooc checksum", err)
	}
	_, _ = h.Write(body)
	sum := h.Sum(nil)
	for i := range sum {
		if sum[i] != trailer[i] {
			return nil, tlerr.NewFormat("ooc checksum mismatch (file truncated or corrupted)")
		}
	}

	if string(body[0:8]) != string(oocSignature[:]) {
		return nil, tlerr.NewFormat("not an ooc file (bad signature)")
	}
	tileSize := int(binary.BigEndian.Uint32(body[8:12]))
	count := int(binary.BigEndian.Uint32(body[12:16]))
	if tileSize != wantTileSize {
		return nil, tlerr.NewFormat("ooc tileSize=%d does not match requested tileSize=%d", tileSize, wantTileSize)
	}
	want := 16 + count*8
	if len(body) != want {
		return nil, tlerr.NewFormat("ooc tile count mismatch: header says %d, body has %d bytes remaining", count, len(body)-16)
	}
	tiles := make([]Tile, count)
	for i := 0; i < count; i++ {
		tiles[i] = Tile(binary.BigEndian.Uint64(body[16+i*8 : 24+i*8]))
	}
	return tiles, nil
}
