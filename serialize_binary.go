package railtopo

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
	"github.com/pkg/errors"
)

// EncodeBinary returns zstd-compressed binary encoding of document
func EncodeBinary(doc *Document) ([]byte, error) {
	encoded, err := binary.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "Can't encode topology document")
	}
	var compressed []byte
	compressed, err = zstd.Compress(compressed, encoded)
	if err != nil {
		return nil, errors.Wrap(err, "Can't compress topology document")
	}
	return compressed, nil
}

// DecodeBinary restores document encoded by EncodeBinary
func DecodeBinary(data []byte) (*Document, error) {
	var decompressed []byte
	decompressed, err := zstd.Decompress(decompressed, data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't decompress topology document")
	}
	doc := &Document{}
	if err := binary.Unmarshal(decompressed, doc); err != nil {
		return nil, errors.Wrap(err, "Can't decode topology document")
	}
	return doc, nil
}

func (topology *Topology) ToBinary() ([]byte, error) {
	doc, err := topology.ToDocument()
	if err != nil {
		return nil, err
	}
	return EncodeBinary(doc)
}

func FromBinary(data []byte) (*Topology, error) {
	doc, err := DecodeBinary(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}
