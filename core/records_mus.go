package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrTruncatedRecord indicates an encoded record shorter than its declared contents.
var ErrTruncatedRecord = errors.New("truncated record")

// EmbeddingRecordMUS serializes EmbeddingRecord values in MUS format.
var EmbeddingRecordMUS = embeddingRecordMUS{}

// CollectionMetaMUS serializes CollectionMeta values in MUS format.
var CollectionMetaMUS = collectionMetaMUS{}

var vectorMUS = float32SliceMUS{}

type float32SliceMUS struct{}

func (float32SliceMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (float32SliceMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	if length > uint64(len(bs)-n)/4 {
		err = ErrTruncatedRecord
		return
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (float32SliceMUS) Size(v []float32) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

func (float32SliceMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	if length > uint64(len(bs)-n)/4 {
		return n, ErrTruncatedRecord
	}
	return n + int(length)*4, nil
}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(v EmbeddingRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.Timestamp, bs[n:])
	return
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (v EmbeddingRecord, n int, err error) {
	id, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Id = ID(id)
	var n1 int
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (embeddingRecordMUS) Size(v EmbeddingRecord) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += vectorMUS.Size(v.Vector)
	size += ord.String.Size(v.Text)
	return size + ord.String.Size(v.Timestamp)
}

func (embeddingRecordMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Uint64.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

type collectionMetaMUS struct{}

func (collectionMetaMUS) Marshal(v CollectionMeta, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += varint.Uint64.Marshal(v.Generation, bs[n:])
	n += varint.Int64.Marshal(int64(v.Dimension), bs[n:])
	n += varint.Int64.Marshal(int64(v.Metric), bs[n:])
	n += varint.Int64.Marshal(int64(v.Consistency), bs[n:])
	n += varint.Int64.Marshal(int64(v.Count), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.Source), bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	return
}

func (collectionMetaMUS) Unmarshal(bs []byte) (v CollectionMeta, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var ints [7]int64
	for i := range ints {
		var n1 int
		if i == 0 || i == 5 {
			var u uint64
			u, n1, err = varint.Uint64.Unmarshal(bs[n:])
			ints[i] = int64(u)
		} else {
			ints[i], n1, err = varint.Int64.Unmarshal(bs[n:])
		}
		n += n1
		if err != nil {
			return
		}
	}
	v.Generation = uint64(ints[0])
	v.Dimension = int(ints[1])
	v.Metric = Metric(ints[2])
	v.Consistency = Consistency(ints[3])
	v.Count = int(ints[4])
	v.Source = Fingerprint(uint64(ints[5]))
	v.CreatedAt = time.UnixMicro(ints[6]).UTC()
	return
}

func (collectionMetaMUS) Size(v CollectionMeta) (size int) {
	size = ord.String.Size(v.Name)
	size += varint.Uint64.Size(v.Generation)
	size += varint.Int64.Size(int64(v.Dimension))
	size += varint.Int64.Size(int64(v.Metric))
	size += varint.Int64.Size(int64(v.Consistency))
	size += varint.Int64.Size(int64(v.Count))
	size += varint.Uint64.Size(uint64(v.Source))
	return size + varint.Int64.Size(v.CreatedAt.UnixMicro())
}

func (s collectionMetaMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
