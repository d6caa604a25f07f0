package dsk

import (
	"bytes"
	"encoding/binary"
)

// EncodeSolidStore serializes a SolidStore to the flat binary form
// stored under the container's "dsk/solid" dataset (spec.md §6),
// grounded on record.go's binary.Write idiom used for partition-file
// records.
func EncodeSolidStore(store *SolidStore) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, int32(store.K)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, int32(len(store.Partitions))); err != nil {
		return nil, err
	}
	for _, part := range store.Partitions {
		if err := binary.Write(&buf, binary.LittleEndian, int64(len(part))); err != nil {
			return nil, err
		}
		for _, sk := range part {
			if err := binary.Write(&buf, binary.LittleEndian, sk.Code); err != nil {
				return nil, err
			}
			if err := binary.Write(&buf, binary.LittleEndian, sk.Abundance); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

// DecodeSolidStore is EncodeSolidStore's inverse.
func DecodeSolidStore(data []byte) (*SolidStore, error) {
	r := bytes.NewReader(data)
	var k, numParts int32
	if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &numParts); err != nil {
		return nil, err
	}

	store := &SolidStore{K: int(k), Partitions: make([][]SolidKmer, numParts)}
	for i := range store.Partitions {
		var n int64
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		part := make([]SolidKmer, n)
		for j := range part {
			if err := binary.Read(r, binary.LittleEndian, &part[j].Code); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &part[j].Abundance); err != nil {
				return nil, err
			}
		}
		store.Partitions[i] = part
	}
	return store, nil
}

// EncodeHistogram serializes a Histogram's bucket counts to the flat
// binary form stored under "dsk/histogram".
func EncodeHistogram(h *Histogram) ([]byte, error) {
	var buf bytes.Buffer
	counts := h.Counts()
	if err := binary.Write(&buf, binary.LittleEndian, int32(len(counts))); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, counts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeHistogram is EncodeHistogram's inverse.
func DecodeHistogram(data []byte) (*Histogram, error) {
	r := bytes.NewReader(data)
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	counts := make([]uint64, n)
	if err := binary.Read(r, binary.LittleEndian, &counts); err != nil {
		return nil, err
	}
	max := 0
	if n > 0 {
		max = int(n) - 1
	}
	h := NewHistogram(max)
	h.buckets = counts
	return h, nil
}
