// Package autochecks persists the services found by discovery, per host.
package autochecks

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"chk.szuro.net/internal/logger"
	"chk.szuro.net/pkg/check"
)

const hostPrefix = "host/"

// Service is a discovered service of a host.
type Service struct {
	CheckType string
	Item      *string
	Params    any
}

// Key identifies the service on its host.
func (s Service) Key() string {
	if s.Item == nil {
		return s.CheckType
	}
	return s.CheckType + "\x00" + *s.Item
}

// record is the stored form of a Service. gob drops zero values, so a pointer
// to an empty item would come back as nil without HasItem.
type record struct {
	CheckType string
	HasItem   bool
	Item      string
	Params    any
}

func toRecord(s Service) record {
	r := record{CheckType: s.CheckType, Params: s.Params}
	if s.Item != nil {
		r.HasItem = true
		r.Item = *s.Item
	}
	return r
}

func (r record) service() Service {
	s := Service{CheckType: r.CheckType, Params: r.Params}
	if r.HasItem {
		s.Item = check.Item(r.Item)
	}
	return s
}

// Store keeps the autochecks of all hosts in badger.
type Store struct {
	db *badger.DB
}

// Open opens the store in dir. An empty dir keeps everything in memory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(logger.Default())
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open autochecks store: %w", err)
	}
	logger.Debug("Opened autochecks store", slog.String("path", dir))
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put replaces the services of host.
func (s *Store) Put(host string, services []Service) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return write(txn, host, services)
	})
}

// Merge adds services to host, replacing those with the same check type and
// item.
func (s *Store) Merge(host string, services []Service) error {
	return s.db.Update(func(txn *badger.Txn) error {
		current, err := read(txn, host)
		if err != nil {
			return err
		}
		index := make(map[string]int, len(current))
		for i, svc := range current {
			index[svc.Key()] = i
		}
		for _, svc := range services {
			if i, ok := index[svc.Key()]; ok {
				current[i] = svc
				continue
			}
			index[svc.Key()] = len(current)
			current = append(current, svc)
		}
		return write(txn, host, current)
	})
}

// Get returns the services of host sorted by check type and item. Unknown
// hosts have no services.
func (s *Store) Get(host string) (services []Service, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		services, err = read(txn, host)
		return err
	})
	return
}

// Lookup returns the service of host with the given check type and item.
func (s *Store) Lookup(host, checkType string, item *string) (Service, bool, error) {
	services, err := s.Get(host)
	if err != nil {
		return Service{}, false, err
	}
	key := Service{CheckType: checkType, Item: item}.Key()
	for _, svc := range services {
		if svc.Key() == key {
			return svc, true, nil
		}
	}
	return Service{}, false, nil
}

// Hosts returns the sorted names of all hosts with stored services.
func (s *Store) Hosts() ([]string, error) {
	var hosts []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(hostPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			hosts = append(hosts, strings.TrimPrefix(string(it.Item().Key()), hostPrefix))
		}
		return nil
	})
	sort.Strings(hosts)
	return hosts, err
}

// Remove deletes every service of host.
func (s *Store) Remove(host string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(hostKey(host))
	})
}

func hostKey(host string) []byte {
	return []byte(hostPrefix + host)
}

func read(txn *badger.Txn, host string) ([]Service, error) {
	item, err := txn.Get(hostKey(host))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []record
	err = item.Value(func(val []byte) error {
		return gob.NewDecoder(bytes.NewReader(val)).Decode(&records)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode autochecks of %s: %w", host, err)
	}

	services := make([]Service, 0, len(records))
	for _, r := range records {
		services = append(services, r.service())
	}
	return services, nil
}

func write(txn *badger.Txn, host string, services []Service) error {
	if len(services) == 0 {
		return txn.Delete(hostKey(host))
	}

	sorted := append([]Service(nil), services...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })

	records := make([]record, 0, len(sorted))
	for _, svc := range sorted {
		records = append(records, toRecord(svc))
	}

	var value bytes.Buffer
	if err := gob.NewEncoder(&value).Encode(records); err != nil {
		return fmt.Errorf("failed to encode autochecks of %s: %w", host, err)
	}
	return txn.Set(hostKey(host), value.Bytes())
}
