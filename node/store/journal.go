package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"kasbridge.dev/bridge/crypto"
)

var (
	bucketRedeem  = []byte("redeem_by_script_hash")
	bucketAddress = []byte("script_hash_by_address")
)

// Record is one generated redeem script. The script is the only way to
// spend a deposit sent to Address, so it is kept until the operator
// deletes the journal.
type Record struct {
	ScriptHash   [32]byte
	RedeemScript []byte
	Address      string
	ChainID      uint64
	L2Address    [20]byte
	Descriptor   string
	CreatedAt    time.Time
}

// Journal is the bbolt-backed redeem-script store for one network.
type Journal struct {
	networkDir string
	db         *bolt.DB
	manifest   *Manifest
}

func Open(datadir string, network string) (*Journal, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	if network == "" {
		return nil, fmt.Errorf("network required")
	}
	if filepath.Base(network) != network || network == "." || network == ".." {
		return nil, fmt.Errorf("invalid network name %q", network)
	}

	networkDir := NetworkDir(datadir, network)
	if err := ensureDir(filepath.Join(networkDir, "db")); err != nil {
		return nil, err
	}

	bdb, err := bolt.Open(journalPath(networkDir), 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	j := &Journal{networkDir: networkDir, db: bdb}

	if err := j.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRedeem, bucketAddress} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(networkDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		m = &Manifest{SchemaVersion: SchemaVersionV1, Network: network, CreatedAt: time.Now().UTC()}
		if err := writeManifestAtomic(networkDir, m); err != nil {
			_ = bdb.Close()
			return nil, err
		}
	case err != nil:
		_ = bdb.Close()
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	if m.Network != network {
		_ = bdb.Close()
		return nil, fmt.Errorf("journal at %s belongs to network %q, not %q", networkDir, m.Network, network)
	}
	j.manifest = m
	return j, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) NetworkDir() string { return j.networkDir }

func (j *Journal) Manifest() *Manifest {
	if j == nil {
		return nil
	}
	return j.manifest
}

// Put stores r under its script hash and indexes it by address. Storing
// the same script twice is a no-op that keeps the first CreatedAt.
func (j *Journal) Put(r Record) error {
	if len(r.RedeemScript) == 0 {
		return fmt.Errorf("record: empty redeem script")
	}
	if r.Address == "" {
		return fmt.Errorf("record: empty address")
	}
	if crypto.ScriptHash(r.RedeemScript) != r.ScriptHash {
		return fmt.Errorf("record: script hash does not match redeem script")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	val, err := encodeRecord(r)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		redeem := tx.Bucket(bucketRedeem)
		addrs := tx.Bucket(bucketAddress)
		if prev := addrs.Get([]byte(r.Address)); prev != nil && !bytes.Equal(prev, r.ScriptHash[:]) {
			return fmt.Errorf("address %s already maps to script hash %x", r.Address, prev)
		}
		if redeem.Get(r.ScriptHash[:]) != nil {
			return nil
		}
		if err := redeem.Put(r.ScriptHash[:], val); err != nil {
			return err
		}
		return addrs.Put([]byte(r.Address), r.ScriptHash[:])
	})
}

func (j *Journal) Get(hash [32]byte) (*Record, bool, error) {
	var out *Record
	err := j.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRedeem).Get(hash[:])
		if v == nil {
			return nil
		}
		r, err := decodeRecord(hash[:], v)
		if err != nil {
			return err
		}
		out = &r
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (j *Journal) GetByAddress(address string) (*Record, bool, error) {
	var out *Record
	err := j.db.View(func(tx *bolt.Tx) error {
		hash := tx.Bucket(bucketAddress).Get([]byte(address))
		if hash == nil {
			return nil
		}
		v := tx.Bucket(bucketRedeem).Get(hash)
		if v == nil {
			return fmt.Errorf("address %s indexes missing script hash %x", address, hash)
		}
		r, err := decodeRecord(hash, v)
		if err != nil {
			return err
		}
		out = &r
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// List returns every record, oldest first.
func (j *Journal) List() ([]Record, error) {
	var out []Record
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRedeem).ForEach(func(k, v []byte) error {
			r, err := decodeRecord(k, v)
			if err != nil {
				return fmt.Errorf("record %x: %w", k, err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}
