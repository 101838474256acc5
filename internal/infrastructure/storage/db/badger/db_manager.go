package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

type repoManager struct {
	store    *badgerhold.Store
	gcTicker *time.Ticker

	limitRepository    domain.LimitRepository
	snapshotRepository domain.SnapshotRepository
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger. An empty dir makes the
// store live in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "book")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening book db: %w", err)
	}

	var gcTicker *time.Ticker
	if len(dbDir) > 0 {
		gcTicker = time.NewTicker(30 * time.Minute)
		go func() {
			for range gcTicker.C {
				if err := store.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.WithError(err).Warn("failed to run value log gc")
				}
			}
		}()
	}

	return &repoManager{
		store:              store,
		gcTicker:           gcTicker,
		limitRepository:    NewLimitRepositoryImpl(store),
		snapshotRepository: NewSnapshotRepositoryImpl(store),
	}, nil
}

func (d *repoManager) LimitRepository() domain.LimitRepository {
	return d.limitRepository
}

func (d *repoManager) SnapshotRepository() domain.SnapshotRepository {
	return d.snapshotRepository
}

func (d *repoManager) Close() {
	if d.gcTicker != nil {
		d.gcTicker.Stop()
	}
	d.store.Close()
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
