package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// 凭证在存储中的键
const (
	KeyPrefix    = "anboto/"
	KeyAPIKey    = KeyPrefix + "api_key"
	KeyAPISecret = KeyPrefix + "api_secret"
)

// Store 基于 Badger 的加密 KV（加密由 Badger 选项提供）
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 字节；为空时不加密（不推荐）
	ReadOnly      bool
	InMemory      bool // 测试用，忽略 Path
}

func Open(opts OpenOptions) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if strings.TrimSpace(opts.Path) == "" {
			return nil, errors.New("secretstore: path is required")
		}
		bopts = badger.DefaultOptions(opts.Path).WithReadOnly(opts.ReadOnly)
	}
	bopts = bopts.WithLogger(nil)
	if len(opts.EncryptionKey) > 0 {
		// 加密模式下 Badger 需要索引缓存
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(16 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "secretstore: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetString 读取字符串；键不存在时 found=false
func (s *Store) GetString(key string) (val string, found bool, err error) {
	k, err := s.key(key)
	if err != nil {
		return "", false, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(b []byte) error {
			val = string(b)
			return nil
		})
	})
	return val, found, err
}

func (s *Store) SetString(key string, val string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, []byte(val))
	})
}

func (s *Store) key(key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("secretstore: not opened")
	}
	k := []byte(strings.TrimSpace(key))
	if len(k) == 0 {
		return nil, errors.New("secretstore: key is empty")
	}
	return k, nil
}

// StoreCredentials 保存 API key 与 base64 编码的 secret
func (s *Store) StoreCredentials(apiKey, encodedSecret string) error {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(encodedSecret) == "" {
		return errors.New("secretstore: api key and secret are required")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(KeyAPIKey), []byte(strings.TrimSpace(apiKey))); err != nil {
			return err
		}
		return txn.Set([]byte(KeyAPISecret), []byte(strings.TrimSpace(encodedSecret)))
	})
}

// LoadCredentials 读取凭证；任一项缺失时 found=false
func (s *Store) LoadCredentials() (apiKey, encodedSecret string, found bool, err error) {
	apiKey, okKey, err := s.GetString(KeyAPIKey)
	if err != nil {
		return "", "", false, err
	}
	encodedSecret, okSecret, err := s.GetString(KeyAPISecret)
	if err != nil {
		return "", "", false, err
	}
	if !okKey || !okSecret {
		return "", "", false, nil
	}
	return apiKey, encodedSecret, true, nil
}

// ParseKey 解析 32 字节密钥（hex 或 base64）；输入为空时返回 nil
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	// 先按 hex 解析，避免把 hex 字符串误判为 base64
	if b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
