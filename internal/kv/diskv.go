package kv

import (
	"fmt"
	"os"

	"github.com/peterbourgon/diskv/v3"
)

// Disk is a diskv-backed Store: one file per logical key under the
// base path. diskv gives us atomic whole-value reads and writes, which
// is all the layer above assumes.
type Disk struct {
	d *diskv.Diskv
}

func OpenDisk(basePath string) (*Disk, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("kv: ensure base path: %w", err)
	}
	return &Disk{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return nil }, // flat layout
		CacheSizeMax: 1024 * 1024,
	})}, nil
}

func (s *Disk) Get(key string) ([]byte, bool, error) {
	if !s.d.Has(key) {
		return nil, false, nil
	}
	val, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv: read %q: %w", key, err)
	}
	return val, true, nil
}

func (s *Disk) Set(key string, value []byte) error {
	if err := s.d.Write(key, value); err != nil {
		return fmt.Errorf("kv: write %q: %w", key, err)
	}
	return nil
}

func (s *Disk) Remove(key string) error {
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil {
		return fmt.Errorf("kv: erase %q: %w", key, err)
	}
	return nil
}

func (s *Disk) MultiRemove(keys []string) error {
	for _, key := range keys {
		if err := s.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Disk) Keys() ([]string, error) {
	var keys []string
	for key := range s.d.Keys(nil) {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Disk) MultiGet(keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		val, ok, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			out[key] = val
		}
	}
	return out, nil
}
