package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketCredentials = []byte("credentials")
	bucketETags       = []byte("etags")
)

// legacyCredentialsFile is the pre-BoltDB plaintext credentials file.
// It is imported once and removed.
const legacyCredentialsFile = "credentials.json"

// BoltStore implements CredentialStore and ETagStore on a single BoltDB
// file, with an in-memory cache promoted on access for hot-path reads.
type BoltStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	cache map[string][]byte
}

// OpenBolt opens (or creates) the store under dir. An empty dir yields a
// memory-only store with no persistence.
func OpenBolt(dir string) (*BoltStore, error) {
	if dir == "" {
		return &BoltStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "stanza.db")
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCredentials, bucketETags} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db, cache: make(map[string][]byte)}
	s.migrateLegacyCredentials(dir)
	return s, nil
}

// migrateLegacyCredentials imports the plaintext credentials file from the
// pre-BoltDB era, then removes it. Existing entries are not overwritten.
func (s *BoltStore) migrateLegacyCredentials(dir string) {
	path := filepath.Join(dir, legacyCredentialsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var legacy map[string]Credential
	if err := json.Unmarshal(data, &legacy); err == nil {
		for host, cred := range legacy {
			host = NormalizeHost("//" + host)
			if host == "" {
				continue
			}
			if _, ok := s.Credential(host); !ok {
				_ = s.SetCredential(host, cred)
			}
		}
	}

	os.Remove(path) // Ignore errors
}

// Close releases the underlying database
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *BoltStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *BoltStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *BoltStore) delete(bucket []byte, key string) error {
	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// === CredentialStore ===

func (s *BoltStore) Credential(host string) (Credential, bool) {
	var cred Credential
	ok := s.get(bucketCredentials, host, &cred)
	return cred, ok
}

func (s *BoltStore) SetCredential(host string, cred Credential) error {
	return s.set(bucketCredentials, host, cred)
}

func (s *BoltStore) DeleteCredential(host string) error {
	return s.delete(bucketCredentials, host)
}

func (s *BoltStore) Hosts() []string {
	var hosts []string
	if s.db != nil {
		s.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketCredentials).ForEach(func(k, _ []byte) error {
				hosts = append(hosts, string(k))
				return nil
			})
		})
	} else {
		s.mu.RLock()
		prefix := string(bucketCredentials) + ":"
		for key := range s.cache {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				hosts = append(hosts, key[len(prefix):])
			}
		}
		s.mu.RUnlock()
	}
	sort.Strings(hosts)
	return hosts
}

// === ETagStore ===

func (s *BoltStore) ETag(url string) (string, bool) {
	var etag string
	ok := s.get(bucketETags, url, &etag)
	return etag, ok && etag != ""
}

func (s *BoltStore) SetETag(url, etag string) error {
	return s.set(bucketETags, url, etag)
}
