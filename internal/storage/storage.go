// Package storage provides content-addressed persistence for merge
// jobs: the uploaded file bundle. Rendered output is not stored here.
// It is a generalization of a red/green two-file diff cache
// into an N-file merge-job cache, keeping the same tiered
// cache-over-permanent-storage design.
package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get when id has no associated object.
var ErrNotFound = errors.New("storage: not found")

// Storage stores opaque, content-addressed blobs. Merge bundles are
// expected to be small (well under a megabyte),
// so the interface works with whole byte slices rather than io.Reader.
// Implementations must not delete objects on their own initiative.
type Storage interface {
	// Get returns ErrNotFound if id does not exist.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put overwrites any existing object at id.
	Put(ctx context.Context, id string, data []byte) error
	// Del returns nil if id does not exist.
	Del(ctx context.Context, id string) error
}

// ListStorage adds enumeration to Storage, which cachedStorage needs to
// rebuild its in-memory index on startup.
type ListStorage interface {
	Storage
	// List invokes cb once per stored object. Callers must not retain b
	// past the callback's return; copy it if needed.
	List(ctx context.Context, cb func(id string, b []byte) error) error
}

// MinIO-backed storage, used as the permanent store in a server
// deployment fronted by S3-compatible object storage.
type minioStorage struct {
	cl         *minio.Client
	bucketName string
}

var _ Storage = (*minioStorage)(nil)

// NewMinIOStorage returns a Storage backed by an existing MinIO client
// and bucket. The bucket is assumed to already exist.
func NewMinIOStorage(cl *minio.Client, bucketName string) Storage {
	return &minioStorage{cl: cl, bucketName: bucketName}
}

func (m *minioStorage) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := m.cl.GetObject(ctx, m.bucketName, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (m *minioStorage) Put(ctx context.Context, id string, data []byte) error {
	_, err := m.cl.PutObject(ctx, m.bucketName, id,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (m *minioStorage) Del(ctx context.Context, id string) error {
	return m.cl.RemoveObject(ctx, m.bucketName, id, minio.RemoveObjectOptions{})
}

// dbStorage is a bbolt-backed Storage, used either as the sole store
// for a local single-process deployment or as the cache tier in front
// of minioStorage.
type dbStorage struct {
	db         *bbolt.DB
	bucketName []byte
}

var _ ListStorage = (*dbStorage)(nil)

// NewDBStorage wraps db, creating bucketName if it doesn't already
// exist. It panics if the bucket cannot be created, since that means
// the database itself is unusable.
func NewDBStorage(db *bbolt.DB, bucketName []byte) Storage {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		panic("storage: creating bucket: " + err.Error())
	}
	return &dbStorage{db: db, bucketName: bucketName}
}

func (m *dbStorage) Get(ctx context.Context, id string) ([]byte, error) {
	var val []byte
	err := m.db.View(func(tx *bbolt.Tx) error {
		bx := tx.Bucket(m.bucketName)
		val = append(val, bx.Get([]byte(id))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		return nil, ErrNotFound
	}
	return val, nil
}

func (m *dbStorage) Put(ctx context.Context, id string, data []byte) error {
	return m.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).Put([]byte(id), data)
	})
}

func (m *dbStorage) Del(ctx context.Context, id string) error {
	return m.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).Delete([]byte(id))
	})
}

func (m *dbStorage) List(ctx context.Context, cb func(id string, b []byte) error) error {
	return m.db.View(func(tx *bbolt.Tx) error {
		bx := tx.Bucket(m.bucketName)
		return bx.ForEach(func(k, v []byte) error {
			return cb(string(k), v)
		})
	})
}

type cachedObject struct {
	id          string
	size        uint64
	lastAccess  time.Time
	lastAccessM sync.Mutex
	ready       chan struct{}
}

func (c *cachedObject) access() {
	n := time.Now()
	if c.lastAccessM.TryLock() {
		c.lastAccess = n
		c.lastAccessM.Unlock()
	}
}

// cachedStorage fronts a permanent Storage with an LRU-evicted local
// cache, so repeat requests for the same merge job avoid a round trip
// to the (typically slower, possibly remote) permanent tier.
type cachedStorage struct {
	cache     ListStorage
	permanent Storage
	maxSize   uint64 // bytes; actual cache usage may run slightly over.

	sync.RWMutex
	objects map[string]*cachedObject
	// cleaning is signalled after every new object is added.
	cleaning chan struct{}
}

const cleanSleep = time.Second

// NewCachedStorage returns a Storage that serves reads from cache when
// possible, falling back to permanent and populating cache on miss.
// cache is enumerated once up front to seed the in-memory index.
func NewCachedStorage(cache ListStorage, permanent Storage, maxSize uint64) (Storage, error) {
	objects := make(map[string]*cachedObject)
	ready := make(chan struct{})
	close(ready)
	err := cache.List(context.Background(), func(id string, b []byte) error {
		objects[id] = &cachedObject{
			id:         id,
			size:       uint64(len(b)),
			lastAccess: time.Now(),
			ready:      ready,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c := &cachedStorage{
		cache:     cache,
		permanent: permanent,
		maxSize:   maxSize,
		objects:   objects,
		cleaning:  make(chan struct{}, 1),
	}
	go c.cleaner()
	return c, nil
}

var _ Storage = (*cachedStorage)(nil)

func (c *cachedStorage) cacheSize() uint64 {
	var sz uint64
	c.RLock()
	for _, obj := range c.objects {
		sz += obj.size
	}
	c.RUnlock()
	return sz
}

func (c *cachedStorage) evict(els []*cachedObject) {
	// Hold the map read-locked for the duration of eviction so we never
	// delete, from the underlying cache, an object that was re-created
	// by a concurrent Put while we were deciding what to evict.
	c.RLock()
	defer c.RUnlock()
	for _, el := range els {
		if _, ok := c.objects[el.id]; ok {
			continue // recreated in the meantime
		}
		if err := c.cache.Del(context.Background(), el.id); err != nil {
			log.Printf("storage: error deleting during cache eviction: %v", err)
		}
	}
}

func (c *cachedStorage) doClean() {
	c.Lock()
	defer c.Unlock()

	objects := make([]*cachedObject, 0, len(c.objects))
	var sz uint64
	for _, obj := range c.objects {
		objects = append(objects, obj)
		obj.lastAccessM.Lock()
		sz += obj.size
	}

	slices.SortFunc(objects, func(i, j *cachedObject) int {
		return i.lastAccess.Compare(j.lastAccess)
	})

	// Target 95% of maxSize, to give some leeway until the next doClean.
	collectTarget := (sz - c.maxSize) + c.maxSize/20
	var collected uint64
	var del []*cachedObject

	for _, obj := range objects {
		if collected >= collectTarget {
			obj.lastAccessM.Unlock()
			continue
		}
		collected += obj.size
		delete(c.objects, obj.id)
		del = append(del, obj)
	}
	if del == nil {
		del = objects
	}

	go c.evict(del)
}

func (c *cachedStorage) cleaner() {
	for range c.cleaning {
		if c.cacheSize() >= c.maxSize {
			c.doClean()
		}
		time.Sleep(cleanSleep)
	}
}

func (c *cachedStorage) cacheHas(id string) bool {
	c.RLock()
	obj, ok := c.objects[id]
	c.RUnlock()
	if !ok {
		return false
	}
	<-obj.ready
	if obj.size == 0 {
		return false
	}
	obj.access()
	return true
}

func (c *cachedStorage) cacheStore(ctx context.Context, id string, b []byte, x *cachedObject) {
	if err := c.cache.Put(ctx, id, b); err != nil {
		log.Printf("storage: cache failed to store object: %v", err)
		return
	}
	x.lastAccess = time.Now()
	x.size = uint64(len(b))

	select {
	case c.cleaning <- struct{}{}:
	default:
	}
}

func (c *cachedStorage) Get(ctx context.Context, id string) ([]byte, error) {
	if c.cacheHas(id) {
		return c.cache.Get(ctx, id)
	}

	co, ours := &cachedObject{id: id, ready: make(chan struct{})}, false
	c.Lock()
	if existing, ok := c.objects[id]; ok {
		co = existing
	} else {
		c.objects[id] = co
		ours = true
	}
	c.Unlock()

	if !ours {
		<-co.ready
		if co.size > 0 {
			return c.cache.Get(ctx, id)
		}
		return nil, ErrNotFound
	}

	defer close(co.ready)
	b, err := c.permanent.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cacheStore(ctx, id, b, co)
	return b, nil
}

func (c *cachedStorage) Put(ctx context.Context, id string, data []byte) error {
	if err := c.permanent.Put(ctx, id, data); err != nil {
		return err
	}

	co := &cachedObject{id: id, ready: make(chan struct{})}
	c.Lock()
	c.objects[id] = co
	c.Unlock()

	defer close(co.ready)
	c.cacheStore(ctx, id, data, co)
	return nil
}

func (c *cachedStorage) Del(ctx context.Context, id string) error {
	if err := c.permanent.Del(ctx, id); err != nil {
		return err
	}

	c.Lock()
	_, exist := c.objects[id]
	delete(c.objects, id)
	c.Unlock()
	if !exist {
		return nil
	}

	if err := c.cache.Del(ctx, id); err != nil {
		log.Printf("storage: cache failed to delete object: %v", err)
	}
	return nil
}
