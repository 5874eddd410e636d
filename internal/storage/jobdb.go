package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// JobDB is a thin wrapper around a bbolt database recording metadata
// about merge jobs that have been uploaded to the server — distinct
// from the blob Storage in storage.go, which holds the bundle bytes
// themselves.
type JobDB struct {
	JobsBucket []byte

	err  error
	db   *bbolt.DB
	once sync.Once
}

// NewJobDB wraps db; the bucket is created lazily on first use.
func NewJobDB(db *bbolt.DB) *JobDB {
	return &JobDB{db: db}
}

func (d *JobDB) init() error {
	d.once.Do(d._init)
	return d.err
}

func (d *JobDB) _init() {
	if d.JobsBucket == nil {
		d.JobsBucket = []byte("jobs")
	}
	err := d.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(d.JobsBucket)
		return err
	})
	if err != nil {
		d.err = fmt.Errorf("jobdb: initialization error: %w", err)
	}
}

// Job records the shape of an uploaded merge job: how many files went
// in, under what names, and what mode it was rendered with.
type Job struct {
	CreatedAt time.Time `json:"created_at"`
	Sum       string    `json:"sum"`
	Dimension int       `json:"dimension"`
	FileNames []string  `json:"file_names"`
	Mode      string    `json:"mode"`
}

// IsZero reports whether j is the zero Job, as returned by GetJob for a
// missing id.
func (j Job) IsZero() bool {
	return j.Sum == ""
}

func (d *JobDB) HasJob(id string) (bool, error) {
	if err := d.init(); err != nil {
		return false, err
	}
	var has bool
	err := d.db.View(func(tx *bbolt.Tx) error {
		has = tx.Bucket(d.JobsBucket).Get([]byte(id)) != nil
		return nil
	})
	return has, err
}

func (d *JobDB) PutJob(id string, j Job) error {
	if err := d.init(); err != nil {
		return err
	}
	encoded, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return d.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(d.JobsBucket).Put([]byte(id), encoded)
	})
}

func (d *JobDB) GetJob(id string) (Job, error) {
	if err := d.init(); err != nil {
		return Job{}, err
	}
	var buf []byte
	err := d.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(d.JobsBucket).Get([]byte(id))
		buf = append(buf, data...)
		return nil
	})
	if err != nil || len(buf) == 0 {
		return Job{}, err
	}
	var j Job
	err = json.Unmarshal(buf, &j)
	return j, err
}
