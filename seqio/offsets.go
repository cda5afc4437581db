package seqio

import (
	"bufio"
	"io"
)

// RecordOffsets scans r (without decompressing — offsets are only
// meaningful against the raw file the workers will later seek into) and
// returns the byte offset of the '>' that starts every record, in file
// order. It is the primitive spec.md §4.4 "Query partitioning" builds on:
// rank 0 counts records, then re-scans to find the offsets at which each
// per-worker shard should begin.
func RecordOffsets(r io.Reader) ([]int64, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	var offsets []int64
	var pos int64
	atLineStart := true
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if atLineStart && b == '>' {
			offsets = append(offsets, pos)
		}
		atLineStart = b == '\n'
		pos++
	}
	return offsets, nil
}
