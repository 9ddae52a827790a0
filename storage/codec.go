package storage

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/samuelfneumann/ddpgnet/network"
)

// CurrentCodecVersion is the version of the encoding of stored
// parameters
const CurrentCodecVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

type paramsRecord struct {
	CodecVersion int
	Params       network.Params
}

// EncodeParams gob encodes network parameters
func EncodeParams(p network.Params) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(paramsRecord{
		CodecVersion: CurrentCodecVersion,
		Params:       p,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeParams decodes network parameters encoded by EncodeParams
func DecodeParams(data []byte) (network.Params, error) {
	var record paramsRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&record); err != nil {
		return nil, err
	}
	if record.CodecVersion != CurrentCodecVersion {
		return nil, fmt.Errorf("%w: codec version %d, want %d",
			ErrVersionMismatch, record.CodecVersion, CurrentCodecVersion)
	}
	return record.Params, nil
}

// copyParams returns a deep copy of p
func copyParams(p network.Params) (network.Params, error) {
	data, err := EncodeParams(p)
	if err != nil {
		return nil, err
	}
	return DecodeParams(data)
}
