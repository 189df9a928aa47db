package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/nxadm/tail"

	"chk.szuro.net/internal/logger"
)

// DiscoveryPattern selects the files tailed in the discovery directory.
const DiscoveryPattern = "*.ndjson"

// FileInput tails the NDJSON files of a directory. Read offsets are kept in a
// badger index so a restart continues where the last run stopped.
type FileInput struct {
	baseInput
	dir         string
	indexDir    string
	fileIndex   *badger.DB
	activeTails []*tail.Tail
	wg          sync.WaitGroup
}

func NewFileInput(dir, indexDir string, feed *Feed) *FileInput {
	return &FileInput{
		baseInput: baseInput{name: "file", feed: feed},
		dir:       dir,
		indexDir:  indexDir,
	}
}

func (fi *FileInput) IsReady() bool {
	return fi.fileIndex != nil
}

func (fi *FileInput) Prepare() error {
	db, err := badger.Open(badger.DefaultOptions(fi.indexDir).WithLogger(logger.Default()))
	if err != nil {
		return fmt.Errorf("failed to open file index: %w", err)
	}
	logger.Debug("Initialized BadgerDB for file index", slog.String("path", fi.indexDir))
	fi.fileIndex = db

	files, err := filepath.Glob(filepath.Join(fi.dir, DiscoveryPattern))
	if err != nil {
		return err
	}
	for _, filename := range files {
		loc, err := findLastReadOffset(fi.fileIndex, filename)
		if err != nil {
			logger.Warn("No valid offset for discovery file, reading from start",
				slog.String("file", filename), slog.Any("error", err))
		}
		t, err := tail.TailFile(filename, tail.Config{
			Follow:        true,
			ReOpen:        true,
			CompleteLines: true,
			Location:      loc,
			Logger:        logger.Default(),
		})
		if err != nil {
			logger.Error("Could not open discovery file", slog.String("file", filename), slog.Any("error", err))
			continue
		}
		fi.activeTails = append(fi.activeTails, t)
	}
	fi.initCounters()
	return nil
}

func (fi *FileInput) Start() {
	for _, t := range fi.activeTails {
		fi.wg.Add(1)
		go func(t *tail.Tail) {
			defer fi.wg.Done()
			logger.Info("Tailing discovery file", slog.String("file", t.Filename))
			for line := range t.Lines {
				if line.Err != nil {
					logger.Error("Failed to read discovery file", slog.String("file", t.Filename), slog.Any("error", line.Err))
					continue
				}
				if len(line.Text) == 0 {
					continue
				}
				if err := fi.accept([]byte(line.Text)); err != nil {
					logger.Warn("Discarding discovery line", slog.String("file", t.Filename), slog.Any("error", err))
					return
				}
			}
		}(t)
	}
}

// Stop saves the read offset of every file and closes the index.
func (fi *FileInput) Stop() error {
	for _, t := range fi.activeTails {
		offset, err := t.Tell()
		if err != nil {
			logger.Error("cannot get file offset, resetting to 0", slog.String("file", t.Filename), slog.Any("error", err))
			offset = 0
		}
		t.Stop()
		t.Cleanup()

		err = fi.fileIndex.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(t.Filename), int64ToBytes(offset))
		})
		if err != nil {
			logger.Error("error when saving file offset", slog.String("file", t.Filename), slog.Any("error", err))
		}
	}
	fi.wg.Wait()
	fi.activeTails = nil

	if fi.fileIndex == nil {
		return nil
	}
	err := fi.fileIndex.Close()
	fi.fileIndex = nil
	return err
}

func findLastReadOffset(indexDB *badger.DB, filename string) (*tail.SeekInfo, error) {
	location := &tail.SeekInfo{Whence: io.SeekStart}

	err := indexDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(filename))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("offset has %d bytes", len(val))
			}
			location.Offset = bytesToInt64(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		err = nil
	}
	if err != nil {
		location.Offset = 0
	}

	// offset greater than size means the file was truncated or rotated
	f, statErr := os.Stat(filename)
	if statErr != nil || location.Offset > f.Size() {
		location.Offset = 0
	}
	return location, err
}

func int64ToBytes(i int64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, uint64(i))
	return bytes
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
