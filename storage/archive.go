package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"forksim_go/utils"
)

// Database key prefixes for better organization
const (
	broadcastKeyPrefix = "broadcast_" // Prefix for broadcast decision records
	broadcastSeqKey    = "broadcast_seq"
)

/**
 * BroadcastRecord is one archived broadcast decision: the outcome the
 * consensus engine produced for a candidate chain, with the heights it was
 * judged against. The archive is write-only diagnostics; the simulation never
 * reads it back, so wiping the data directory never changes behavior.
 */
type BroadcastRecord struct {
	Seq             uint64    `json:"seq"`
	Accepted        bool      `json:"accepted"`
	Reason          string    `json:"reason"`
	DefenseMode     string    `json:"defenseMode"`
	CanonicalHeight int       `json:"canonicalHeight"`
	CandidateHeight int       `json:"candidateHeight"`
	Slashed         []string  `json:"slashed,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Archive handles the persistence layer for broadcast decisions
type Archive struct {
	db        *leveldb.DB
	batchLock sync.Mutex
	path      string
	seq       uint64
}

// Open creates a new archive under dataDir, resuming the sequence counter
// from a previous run if one exists.
func Open(dataDir string) (*Archive, error) {
	dbPath := filepath.Join(dataDir, "broadcasts")

	// Configure database options
	options := &opt.Options{
		BlockCacheCapacity: 8 * 1024 * 1024, // 8MB block cache
		WriteBuffer:        4 * 1024 * 1024, // 4MB write buffer
	}

	db, err := leveldb.OpenFile(dbPath, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open broadcast archive: %v", err)
	}

	a := &Archive{db: db, path: dbPath}
	if data, err := db.Get([]byte(broadcastSeqKey), nil); err == nil {
		if _, err := fmt.Sscanf(string(data), "%d", &a.seq); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to parse archive sequence: %v", err)
		}
	} else if err != leveldb.ErrNotFound {
		db.Close()
		return nil, fmt.Errorf("failed to read archive sequence: %v", err)
	}

	utils.LogInfo("Broadcast archive initialized at: %s (seq %d)", dbPath, a.seq)
	return a, nil
}

// Close closes the database connection
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// RecordBroadcast appends one broadcast decision to the archive.
func (a *Archive) RecordBroadcast(record BroadcastRecord) error {
	a.batchLock.Lock()
	defer a.batchLock.Unlock()

	a.seq++
	record.Seq = a.seq
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast record: %v", err)
	}

	batch := new(leveldb.Batch)
	key := fmt.Sprintf("%s%020d", broadcastKeyPrefix, record.Seq)
	batch.Put([]byte(key), data)
	batch.Put([]byte(broadcastSeqKey), []byte(fmt.Sprintf("%d", a.seq)))

	if err := a.db.Write(batch, nil); err != nil {
		a.seq--
		return fmt.Errorf("failed to save broadcast record: %v", err)
	}

	utils.LogDebug("Broadcast %d archived (accepted=%v)", record.Seq, record.Accepted)
	return nil
}

// Broadcasts retrieves all archived broadcast decisions in sequence order.
func (a *Archive) Broadcasts() ([]BroadcastRecord, error) {
	records := make([]BroadcastRecord, 0)

	iter := a.db.NewIterator(util.BytesPrefix([]byte(broadcastKeyPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		if string(iter.Key()) == broadcastSeqKey {
			continue
		}
		var record BroadcastRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal broadcast record: %v", err)
		}
		records = append(records, record)
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("error iterating broadcast records: %v", err)
	}

	return records, nil
}
