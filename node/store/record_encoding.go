package store

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const recordEncodingV1 uint8 = 1

// encodedRecord is the on-disk layout of a Record: a CBOR array led by a
// format version.
type encodedRecord struct {
	_            struct{} `cbor:",toarray"`
	Version      uint8
	RedeemScript []byte
	Address      string
	ChainID      uint64
	L2Address    []byte
	Descriptor   string
	CreatedAt    int64
}

var recordDecMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 16,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

func encodeRecord(r Record) ([]byte, error) {
	b, err := cbor.Marshal(encodedRecord{
		Version:      recordEncodingV1,
		RedeemScript: r.RedeemScript,
		Address:      r.Address,
		ChainID:      r.ChainID,
		L2Address:    r.L2Address[:],
		Descriptor:   r.Descriptor,
		CreatedAt:    r.CreatedAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("record cbor: %w", err)
	}
	return b, nil
}

func decodeRecord(hash []byte, b []byte) (Record, error) {
	var e encodedRecord
	if err := recordDecMode.Unmarshal(b, &e); err != nil {
		return Record{}, fmt.Errorf("record cbor: %w", err)
	}
	if e.Version != recordEncodingV1 {
		return Record{}, fmt.Errorf("record encoding version %d not supported", e.Version)
	}
	if len(hash) != 32 {
		return Record{}, fmt.Errorf("record key is %d bytes, want 32", len(hash))
	}
	if len(e.L2Address) != 20 {
		return Record{}, fmt.Errorf("record l2 address is %d bytes, want 20", len(e.L2Address))
	}
	r := Record{
		RedeemScript: e.RedeemScript,
		Address:      e.Address,
		ChainID:      e.ChainID,
		Descriptor:   e.Descriptor,
		CreatedAt:    time.Unix(e.CreatedAt, 0).UTC(),
	}
	copy(r.ScriptHash[:], hash)
	copy(r.L2Address[:], e.L2Address)
	return r, nil
}
