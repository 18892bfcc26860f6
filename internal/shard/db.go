package shard

import (
	"sort"
	"time"

	"github.com/dreamware/redcore/internal/memtrack"
	"github.com/dreamware/redcore/internal/value"
)

// DB is one logical database: NumShards shards selected by FNV-1a(key).
type DB struct {
	shards [NumShards]*Shard
}

func newDB(mem *memtrack.Accountant) *DB {
	db := &DB{}
	for i := range db.shards {
		db.shards[i] = newShard(mem)
	}
	return db
}

func (db *DB) shardFor(key string) *Shard {
	return db.shards[shardIndex(key, NumShards)]
}

// Store is the top-level sharded engine: a fixed number of databases,
// each independently sharded, sharing one memory accountant.
type Store struct {
	dbs []*DB
	mem *memtrack.Accountant
}

// New constructs a Store with numDBs databases and a memory cap in bytes
// (0 meaning unlimited).
func New(numDBs int, maxMemoryBytes int64) *Store {
	mem := memtrack.New(maxMemoryBytes)
	s := &Store{mem: mem}
	s.dbs = make([]*DB, numDBs)
	for i := range s.dbs {
		s.dbs[i] = newDB(mem)
	}
	return s
}

// NumDatabases reports the configured database count.
func (s *Store) NumDatabases() int { return len(s.dbs) }

// Memory returns the shared memory accountant.
func (s *Store) Memory() *memtrack.Accountant { return s.mem }

func (s *Store) db(n int) *DB { return s.dbs[n] }

// Get retrieves key's value, evicting it first if expired.
func (s *Store) Get(dbn int, key string) (*value.StoredValue, error) {
	sh := s.db(dbn).shardFor(key)
	now := time.Now()

	sh.mu.RLock()
	sv, ok := sh.data[key]
	if ok && !sv.ExpiredAt(now) {
		result := sv
		sh.mu.RUnlock()
		return result, nil
	}
	sh.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	sh.mu.Lock()
	sh.evictIfExpired(key, now)
	sh.mu.Unlock()
	return nil, ErrNotFound
}

// GetTyped retrieves key's value and verifies it is of kind k, returning
// ErrWrongType if not.
func (s *Store) GetTyped(dbn int, key string, k value.Kind) (*value.StoredValue, error) {
	sv, err := s.Get(dbn, key)
	if err != nil {
		return nil, err
	}
	if sv.Kind != k {
		return nil, ErrWrongType
	}
	return sv, nil
}

// SetValue stores sv under key, replacing any existing value; the TTL
// is the one sv carries (zero ExpiresAt meaning none). The memory used
// is accounted, but the memory cap is not checked and the returned
// error is always nil.
func (s *Store) SetValue(dbn int, key string, sv *value.StoredValue) error {
	sh := s.db(dbn).shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.setLocked(key, sv)
	return nil
}

// Exists reports whether key is live (present and unexpired).
func (s *Store) Exists(dbn int, key string) bool {
	_, err := s.Get(dbn, key)
	return err == nil
}

// Delete removes key if live, reporting whether it was removed.
func (s *Store) Delete(dbn int, key string) bool {
	sh := s.db(dbn).shardFor(key)
	now := time.Now()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sv, ok := sh.data[key]
	if !ok || sv.ExpiredAt(now) {
		if ok {
			sh.removeLocked(key)
		}
		return false
	}
	sh.removeLocked(key)
	return true
}

// Touch runs fn against the live value at key, under the shard's write
// lock, deleting the key afterward if fn leaves it an empty container.
// fn returning an error aborts without side effects.
func (s *Store) Touch(dbn int, key string, fn func(sv *value.StoredValue, exists bool) (*value.StoredValue, error)) error {
	sh := s.db(dbn).shardFor(key)
	now := time.Now()
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sv, ok := sh.data[key]
	if ok && sv.ExpiredAt(now) {
		sh.removeLocked(key)
		sv, ok = nil, false
	}

	next, err := fn(sv, ok)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	sh.setLocked(key, next)
	sh.deleteIfEmptyLocked(key)
	return nil
}

// TTLResult reports the outcome of a TTL/PTTL query.
type TTLResult int

const (
	TTLNone TTLResult = -1 // key exists, no expiry
	TTLMiss TTLResult = -2 // key does not exist
)

// TTL returns the remaining time-to-live, or one of the sentinel
// TTLResult values.
func (s *Store) TTL(dbn int, key string) (time.Duration, TTLResult) {
	sv, err := s.Get(dbn, key)
	if err != nil {
		return 0, TTLMiss
	}
	if !sv.HasTTL() {
		return 0, TTLNone
	}
	return time.Until(sv.ExpiresAt), 0
}

// Expire sets key's TTL as an absolute deadline, returning false if the
// key does not exist.
func (s *Store) Expire(dbn int, key string, at time.Time) bool {
	sh := s.db(dbn).shardFor(key)
	now := time.Now()
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sv, ok := sh.data[key]
	if !ok || sv.ExpiredAt(now) {
		return false
	}
	sv.ExpiresAt = at
	sh.expiring[key] = at
	sh.watch.OnMutation()
	return true
}

// Persist removes key's TTL, reporting whether it had one.
func (s *Store) Persist(dbn int, key string) bool {
	sh := s.db(dbn).shardFor(key)
	now := time.Now()
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sv, ok := sh.data[key]
	if !ok || sv.ExpiredAt(now) || !sv.HasTTL() {
		return false
	}
	sv.ExpiresAt = time.Time{}
	delete(sh.expiring, key)
	sh.watch.OnMutation()
	return true
}

// Rename moves the value at oldKey to newKey atomically, locking the
// two shards in pointer order to avoid deadlock.
func (s *Store) Rename(dbn int, oldKey, newKey string) error {
	db := s.db(dbn)
	shOld := db.shardFor(oldKey)
	shNew := db.shardFor(newKey)

	if shOld == shNew {
		shOld.mu.Lock()
		defer shOld.mu.Unlock()
		return renameWithinShardLocked(shOld, oldKey, newKey)
	}

	first, second := shOld, shNew
	if ptrLess(shNew, shOld) {
		first, second = shNew, shOld
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	now := time.Now()
	sv, ok := shOld.data[oldKey]
	if !ok || sv.ExpiredAt(now) {
		if ok {
			shOld.removeLocked(oldKey)
		}
		return ErrNoSuchKey
	}
	shOld.removeLocked(oldKey)
	shNew.setLocked(newKey, sv)
	return nil
}

func renameWithinShardLocked(sh *Shard, oldKey, newKey string) error {
	now := time.Now()
	sv, ok := sh.data[oldKey]
	if !ok || sv.ExpiredAt(now) {
		if ok {
			sh.removeLocked(oldKey)
		}
		return ErrNoSuchKey
	}
	sh.removeLocked(oldKey)
	sh.setLocked(newKey, sv)
	return nil
}

func ptrLess(a, b *Shard) bool {
	// Comparing pointer addresses gives a stable, arbitrary total order
	// sufficient to avoid deadlock when locking two shards at once.
	return uintptrOf(a) < uintptrOf(b)
}

// Keys returns all live keys matching a glob pattern; a full scan
// across every shard.
func (s *Store) Keys(dbn int, pattern string) []string {
	db := s.db(dbn)
	now := time.Now()
	var out []string
	for _, sh := range db.shards {
		sh.mu.Lock()
		for k, sv := range sh.data {
			if sv.ExpiredAt(now) {
				continue
			}
			if pattern == "" || pattern == "*" || globMatch(pattern, k) {
				out = append(out, k)
			}
		}
		sh.mu.Unlock()
	}
	return out
}

// RandomKey returns an arbitrary live key, or false if the database is
// empty.
func (s *Store) RandomKey(dbn int) (string, bool) {
	keys := s.Keys(dbn, "*")
	if len(keys) == 0 {
		return "", false
	}
	return keys[0], true
}

// ScanResult is the outcome of one SCAN/HSCAN/SSCAN/ZSCAN step.
type ScanResult struct {
	Cursor uint64
	Keys   []string
}

// Scan implements a cursor-based iteration contract: the cursor encodes
// a position in a sorted view of all live keys (rebuilt fresh each
// call, so this guarantees eventual coverage of keys stable throughout
// the scan — it does not use Redis's reversed-bits scheme).
func (s *Store) Scan(dbn int, cursor uint64, pattern string, typeFilter string, count int) ScanResult {
	if count <= 0 {
		count = 10
	}
	all := s.Keys(dbn, "*")
	sort.Strings(all)

	start := int(cursor)
	if start > len(all) {
		start = len(all)
	}
	end := start + count
	if end > len(all) {
		end = len(all)
	}

	var out []string
	for _, k := range all[start:end] {
		if pattern != "" && pattern != "*" && !globMatch(pattern, k) {
			continue
		}
		if typeFilter != "" {
			sv, err := s.Get(dbn, k)
			if err != nil || sv.Kind.String() != typeFilter {
				continue
			}
		}
		out = append(out, k)
	}

	next := uint64(end)
	if end >= len(all) {
		next = 0
	}
	return ScanResult{Cursor: next, Keys: out}
}

// FlushDB removes all keys from one database.
func (s *Store) FlushDB(dbn int) {
	db := s.db(dbn)
	for _, sh := range db.shards {
		sh.mu.Lock()
		for k := range sh.data {
			sh.removeLocked(k)
		}
		sh.mu.Unlock()
	}
}

// FlushAll removes all keys from every database.
func (s *Store) FlushAll() {
	for i := range s.dbs {
		s.FlushDB(i)
	}
}

// DBSize returns the number of live keys in a database.
func (s *Store) DBSize(dbn int) int {
	return len(s.Keys(dbn, "*"))
}

// globMatch implements Redis-style glob matching (*, ?, [...], \escape).
// A hand-rolled matcher is used rather than path/filepath.Match: Redis
// glob semantics (backslash escapes, character classes, no special
// treatment of '/') diverge from filepath's shell-glob rules.
func globMatch(pattern, s string) bool {
	return globMatchBytes([]byte(pattern), []byte(s))
}

func globMatchBytes(pattern, s []byte) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatchBytes(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		case '[':
			if len(s) == 0 {
				return false
			}
			closeIdx := indexByte(pattern[1:], ']')
			if closeIdx < 0 {
				return matchLiteral(pattern, s)
			}
			class := pattern[1 : 1+closeIdx]
			negate := false
			if len(class) > 0 && class[0] == '^' {
				negate = true
				class = class[1:]
			}
			if matchClass(class, s[0]) != negate {
				s = s[1:]
				pattern = pattern[2+closeIdx:]
				continue
			}
			return false
		case '\\':
			if len(pattern) < 2 {
				return matchLiteral(pattern, s)
			}
			if len(s) == 0 || s[0] != pattern[1] {
				return false
			}
			s = s[1:]
			pattern = pattern[2:]
		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		}
	}
	return len(s) == 0
}

func matchLiteral(pattern, s []byte) bool {
	return len(s) > 0 && s[0] == pattern[0] && globMatchBytes(pattern[1:], s[1:])
}

func matchClass(class []byte, b byte) bool {
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if class[i] <= b && b <= class[i+2] {
				return true
			}
			i += 2
			continue
		}
		if class[i] == b {
			return true
		}
	}
	return false
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// EncodingHint returns the advisory encoding of key's value, for the
// supplemented introspection feature in SPEC_FULL.md. No OBJECT command
// is registered, so this method is the only way to read the hint.
func (s *Store) EncodingHint(dbn int, key string) (value.Encoding, error) {
	sv, err := s.Get(dbn, key)
	if err != nil {
		return "", err
	}
	return sv.Encoding, nil
}
