package hotbench

import (
	"sync"

	"github.com/google/btree"
)

type memoryRecord struct {
	key    string
	fields KVMap
}

func lessRecord(a, b memoryRecord) bool {
	return a.key < b.key
}

// memoryStore holds the tables of one named in-process database.
type memoryStore struct {
	lock   sync.RWMutex
	tables map[string]*btree.BTreeG[memoryRecord]
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tables: make(map[string]*btree.BTreeG[memoryRecord]),
	}
}

func (self *memoryStore) table(name string, create bool) *btree.BTreeG[memoryRecord] {
	t, ok := self.tables[name]
	if !ok && create {
		t = btree.NewG(32, lessRecord)
		self.tables[name] = t
	}
	return t
}

var (
	memoryStoresLock sync.Mutex
	memoryStores     = make(map[string]*memoryStore)
)

func getMemoryStore(name string) *memoryStore {
	memoryStoresLock.Lock()
	defer memoryStoresLock.Unlock()
	s, ok := memoryStores[name]
	if !ok {
		s = newMemoryStore()
		memoryStores[name] = s
	}
	return s
}

// DropMemoryStore forgets all records of the named in-process database.
func DropMemoryStore(name string) {
	memoryStoresLock.Lock()
	defer memoryStoresLock.Unlock()
	delete(memoryStores, name)
}

// MemoryDB keeps records in process, ordered by key. Instances configured
// with the same `memorydb.name` share one store, so the client goroutines of
// a benchmark see each other's writes.
type MemoryDB struct {
	*DBBase
	store *memoryStore
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		DBBase: NewDBBase(),
	}
}

func (self *MemoryDB) Init() error {
	p := self.GetProperties()
	if p == nil {
		p = NewProperties()
	}
	self.store = getMemoryStore(p.GetDefault(ConfigMemoryDBName, ConfigMemoryDBNameDefault))
	return nil
}

func (self *MemoryDB) Cleanup() error {
	return nil
}

func selectFields(values KVMap, fields []string) KVMap {
	if len(fields) == 0 {
		ret := make(KVMap, len(values))
		for k, v := range values {
			ret[k] = v
		}
		return ret
	}
	ret := make(KVMap, len(fields))
	for _, f := range fields {
		if v, ok := values[f]; ok {
			ret[f] = v
		}
	}
	return ret
}

func (self *MemoryDB) Read(table string, key string, fields []string) (KVMap, StatusType) {
	self.store.lock.RLock()
	defer self.store.lock.RUnlock()
	t := self.store.table(table, false)
	if t == nil {
		return nil, StatusNotFound
	}
	r, ok := t.Get(memoryRecord{key: key})
	if !ok {
		return nil, StatusNotFound
	}
	return selectFields(r.fields, fields), StatusOK
}

func (self *MemoryDB) Scan(table string, startKey string, recordCount int64, fields []string) ([]KVMap, StatusType) {
	self.store.lock.RLock()
	defer self.store.lock.RUnlock()
	t := self.store.table(table, false)
	if t == nil || recordCount <= 0 {
		return nil, StatusOK
	}
	ret := make([]KVMap, 0, recordCount)
	t.AscendGreaterOrEqual(memoryRecord{key: startKey}, func(r memoryRecord) bool {
		ret = append(ret, selectFields(r.fields, fields))
		return int64(len(ret)) < recordCount
	})
	return ret, StatusOK
}

func (self *MemoryDB) Update(table string, key string, values KVMap) StatusType {
	self.store.lock.Lock()
	defer self.store.lock.Unlock()
	t := self.store.table(table, false)
	if t == nil {
		return StatusNotFound
	}
	r, ok := t.Get(memoryRecord{key: key})
	if !ok {
		return StatusNotFound
	}
	merged := make(KVMap, len(r.fields)+len(values))
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	t.ReplaceOrInsert(memoryRecord{key: key, fields: merged})
	return StatusOK
}

func (self *MemoryDB) Insert(table string, key string, values KVMap) StatusType {
	self.store.lock.Lock()
	defer self.store.lock.Unlock()
	t := self.store.table(table, true)
	t.ReplaceOrInsert(memoryRecord{key: key, fields: selectFields(values, nil)})
	return StatusOK
}

func (self *MemoryDB) Delete(table string, key string) StatusType {
	self.store.lock.Lock()
	defer self.store.lock.Unlock()
	t := self.store.table(table, false)
	if t == nil {
		return StatusNotFound
	}
	if _, ok := t.Delete(memoryRecord{key: key}); !ok {
		return StatusNotFound
	}
	return StatusOK
}

// Count returns the number of records in table.
func (self *MemoryDB) Count(table string) int {
	self.store.lock.RLock()
	defer self.store.lock.RUnlock()
	t := self.store.table(table, false)
	if t == nil {
		return 0
	}
	return t.Len()
}
