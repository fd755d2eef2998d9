package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"mountbreed/storage"
)

var errNoCheckpoint = errors.New("state: no open checkpoint")

type entry struct {
	value   []byte
	deleted bool
}

type layer map[string]entry

// Manager reads and writes protocol state through a stack of in-memory
// layers on top of the backing database. The bottom layer holds writes that
// are pending the next Commit; every Checkpoint pushes a new layer that can be
// reverted or merged down.
//
// Manager is not safe for concurrent use.
type Manager struct {
	db     storage.Database
	layers []layer
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, layers: []layer{make(layer)}}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// Checkpoint opens a new speculative layer and returns the resulting depth.
func (m *Manager) Checkpoint() int {
	m.layers = append(m.layers, make(layer))
	return len(m.layers) - 1
}

// Depth returns the number of open checkpoints.
func (m *Manager) Depth() int {
	return len(m.layers) - 1
}

// Revert discards every write made since the most recent checkpoint.
func (m *Manager) Revert() error {
	if len(m.layers) < 2 {
		return errNoCheckpoint
	}
	m.layers = m.layers[:len(m.layers)-1]
	return nil
}

// Merge folds the most recent checkpoint into the layer beneath it.
func (m *Manager) Merge() error {
	if len(m.layers) < 2 {
		return errNoCheckpoint
	}
	top := m.layers[len(m.layers)-1]
	m.layers = m.layers[:len(m.layers)-1]
	below := m.layers[len(m.layers)-1]
	for k, v := range top {
		below[k] = v
	}
	return nil
}

// Commit persists the pending writes to the database in a single batch.
// Open checkpoints must be merged or reverted first.
func (m *Manager) Commit() error {
	if len(m.layers) != 1 {
		return fmt.Errorf("state: commit with %d open checkpoints", len(m.layers)-1)
	}
	pending := m.layers[0]
	if len(pending) == 0 {
		return nil
	}
	batch := storage.NewBatch()
	for k, v := range pending {
		if v.deleted {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), v.value)
	}
	if err := m.db.Write(batch); err != nil {
		return err
	}
	m.layers[0] = make(layer)
	return nil
}

// Discard drops every uncommitted write, including open checkpoints.
func (m *Manager) Discard() {
	m.layers = []layer{make(layer)}
}

// Pending reports whether any write is waiting for Commit.
func (m *Manager) Pending() bool {
	for _, l := range m.layers {
		if len(l) > 0 {
			return true
		}
	}
	return false
}

func (m *Manager) get(hashed []byte) ([]byte, bool, error) {
	for i := len(m.layers) - 1; i >= 0; i-- {
		if e, ok := m.layers[i][string(hashed)]; ok {
			if e.deleted {
				return nil, false, nil
			}
			return e.value, true, nil
		}
	}
	value, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) set(hashed, value []byte) {
	m.layers[len(m.layers)-1][string(hashed)] = entry{value: append([]byte(nil), value...)}
}

func (m *Manager) del(hashed []byte) {
	m.layers[len(m.layers)-1][string(hashed)] = entry{deleted: true}
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is automatically hashed with keccak256.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.set(kvKey(key), encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.get(kvKey(key))
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under the supplied key. Deleting a missing
// key is a no-op.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	m.del(kvKey(key))
	return nil
}

// KVAppend appends the provided value to the RLP-encoded byte slice list stored
// under the supplied key. Duplicate values are ignored to keep the index
// deterministic.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	var list [][]byte
	if _, err := m.KVGet(key, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	return m.KVPut(key, list)
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice to avoid nil
// surprises for callers.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("kv: destination must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Slice {
		return fmt.Errorf("kv: destination must point to a slice")
	}
	ok, err := m.KVGet(key, out)
	if err != nil {
		return err
	}
	if !ok {
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	}
	return nil
}
