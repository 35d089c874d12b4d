package boltstore

import (
	"bytes"
	"encoding/gob"
)

// Records are gob-encoded. Object, AttrDef and UFuncDef are stored as-is;
// redirect values are bare refToKey bytes.

func encode[T any](v *T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode[T any](data []byte) (*T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
