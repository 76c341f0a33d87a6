package dump

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
)

// ID is a unique identifier of the dump.
type ID struct {
	// Label of the dump source (e.g. testnet, mainnet).
	Label string `json:"label"`
	// Blockchain height at which the state was pulled.
	Block uint32 `json:"block"`
}

const (
	// word separator used in dump file naming
	sep = "-"
	// suffix of dump files
	fileSuffix = "relay.json"
)

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatUint(uint64(x.Block), 10)
}

// FileName returns name of the file storing dump with the ID.
func (x ID) FileName() string {
	return x.String() + sep + fileSuffix
}

// decodeFileName decodes ID fields from the dump file name. Label may contain
// separators, the block number is the last but one element.
func (x *ID) decodeFileName(name string) error {
	if !strings.HasSuffix(name, sep+fileSuffix) {
		return fmt.Errorf("missing '%s' suffix", sep+fileSuffix)
	}

	s := strings.TrimSuffix(name, sep+fileSuffix)
	ind := strings.LastIndex(s, sep)
	if ind < 0 {
		return fmt.Errorf("expected '%s'-separated label and block", sep)
	}

	n, err := strconv.ParseUint(s[ind+1:], 10, 32)
	if err != nil {
		return fmt.Errorf("decode block number from '%s': %w", s[ind+1:], err)
	}

	x.Label = s[:ind]
	x.Block = uint32(n)

	return nil
}

// Item is a single storage item of the contract. Binary fields are
// base64-encoded in JSON.
type Item struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

// Snapshot is the collected state of the contract.
type Snapshot struct {
	ID       ID             `json:"id"`
	Contract state.Contract `json:"contract"`
	Storage  []Item         `json:"storage"`
}

// Get returns value of the storage item with the given key or nil if there is
// no such item.
func (x *Snapshot) Get(key string) []byte {
	for i := range x.Storage {
		if string(x.Storage[i].Key) == key {
			return x.Storage[i].Value
		}
	}
	return nil
}

// Add appends storage item to the snapshot. It matches the signature of
// storage iterators, so it can be passed to them directly.
func (x *Snapshot) Add(key, value []byte) error {
	x.Storage = append(x.Storage, Item{
		Key:   append([]byte(nil), key...),
		Value: append([]byte(nil), value...),
	})
	return nil
}

// Write saves the snapshot into the given directory. Write fails if dump with
// the same ID already exists.
func Write(dir string, s *Snapshot) (string, error) {
	p := filepath.Join(dir, s.ID.FileName())

	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("create dump file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", " ")

	err = enc.Encode(s)
	if err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode snapshot to JSON: %w", err)
	}

	err = f.Close()
	if err != nil {
		return "", fmt.Errorf("close dump file: %w", err)
	}

	return p, nil
}

// Read reads snapshot from the given file.
func Read(p string) (*Snapshot, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open dump file: %w", err)
	}
	defer f.Close()

	var s Snapshot

	err = json.NewDecoder(f).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot from JSON: %w", err)
	}

	return &s, nil
}

// IterateDumps iterates over all dumps in the specified directory and passes
// each of them into f. Files not looking like dumps are skipped. Missing
// directory is not an error.
func IterateDumps(dir string, f func(*Snapshot) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read dump directory: %w", err)
	}

	var id ID

	for _, e := range entries {
		if e.IsDir() || id.decodeFileName(e.Name()) != nil {
			continue
		}

		s, err := Read(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read dump '%s': %w", e.Name(), err)
		}

		if s.ID != id {
			return fmt.Errorf("dump '%s' has mismatched ID %s", e.Name(), s.ID)
		}

		err = f(s)
		if err != nil {
			return err
		}
	}

	return nil
}
