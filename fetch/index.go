// Copyright 2025 The winrig Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetch

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const archiveBucket = "archives"

// Index records what was previously downloaded so unchanged archives
// can be skipped. Entries are keyed by archive URL.
type Index struct {
	db *bolt.DB
}

// Entry is the cached download state for one archive URL.
type Entry struct {
	ETag      string    `json:"etag,omitempty"`
	SHA256    string    `json:"sha256"`
	FetchedAt time.Time `json:"fetched_at"`
}

// OpenIndex opens or creates the cache index database at path.
func OpenIndex(path string) (*Index, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache index %s: %w", path, err)
	}
	return &Index{db: db}, nil
}

// Get returns the cached entry for url, or nil if none is recorded.
func (ix *Index) Get(url string) (*Entry, error) {
	var entry *Entry
	err := ix.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(archiveBucket))
		if bucket == nil {
			return nil
		}
		raw := bucket.Get([]byte(url))
		if raw == nil {
			return nil
		}
		entry = &Entry{}
		if err := json.Unmarshal(raw, entry); err != nil {
			return fmt.Errorf("decoding cache entry for %s: %w", url, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Put records the entry for url, replacing any previous one.
func (ix *Index) Put(url string, entry *Entry) error {
	return ix.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(archiveBucket))
		if err != nil {
			return err
		}
		raw, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(url), raw)
	})
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}
