package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.etcd.io/bbolt"

	"github.com/ndiffmerge/ndiffmerge/internal/server"
	"github.com/ndiffmerge/ndiffmerge/internal/storage"
)

type serveOpts struct {
	listenAddr     string
	publicURL      string
	dbFile         string
	s3Endpoint     string
	s3AccessKey    string
	s3AccessSecret string
	s3Bucket       string
}

func runServe(args []string) {
	fs := flag.NewFlagSet("ndiffmerge serve", flag.ExitOnError)

	var opts serveOpts
	stringVarFS(fs, &opts.listenAddr, "listen-addr", ":18844", "listen address for the web server")
	stringVarFS(fs, &opts.publicURL, "public-url", "http://localhost:18844", "public url for the server, used in the curl usage example")
	stringVarFS(fs, &opts.dbFile, "db-file", "data/db.bolt", "bbolt database file. "+
		"this is a cache (if used together with s3) or the permanent store otherwise")
	stringVarFS(fs, &opts.s3Endpoint, "s3-endpoint", "", "s3 endpoint; if empty, the bbolt database is the permanent store")
	stringVarFS(fs, &opts.s3AccessKey, "s3-access-key", "", "s3 access key")
	stringVarFS(fs, &opts.s3AccessSecret, "s3-access-secret", "", "s3 access secret")
	stringVarFS(fs, &opts.s3Bucket, "s3-bucket", "", "s3 bucket")
	fs.Parse(args)

	db, err := bbolt.Open(opts.dbFile, 0o600, nil)
	if err != nil {
		fail(fmt.Errorf("opening database: %w", err))
	}

	var store storage.Storage
	if opts.s3Endpoint == "" {
		store = storage.NewDBStorage(db, []byte("storage"))
	} else {
		cl, err := minio.New(opts.s3Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(opts.s3AccessKey, opts.s3AccessSecret, ""),
			Secure: true,
		})
		if err != nil {
			fail(fmt.Errorf("minio init: %w", err))
		}
		permanent := storage.NewMinIOStorage(cl, opts.s3Bucket)
		cache := storage.NewDBStorage(db, []byte("cache"))
		store, err = storage.NewCachedStorage(cache.(storage.ListStorage), permanent, 64<<20)
		if err != nil {
			fail(fmt.Errorf("cache init: %w", err))
		}
	}

	srv := &server.Server{
		PublicURL: opts.publicURL,
		Storage:   store,
		Jobs:      storage.NewJobDB(db),
		Output:    os.Stdout,
	}

	fmt.Println("listening on", opts.listenAddr)
	if err := http.ListenAndServe(opts.listenAddr, srv.Router()); err != nil {
		fail(err)
	}
}

func stringVarFS(fs *flag.FlagSet, p *string, fg, defaultValue, usage string) {
	ev := envName(fg)
	fs.StringVar(p, fg, defaultEnv(ev, defaultValue), usage+". env var: "+ev)
}
