package storagesvc

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"

	"github.com/aulatech/aula/core"
	"github.com/aulatech/aula/core/material"
)

// GCSStore keeps uploaded material files in a Cloud Storage bucket.
type GCSStore struct {
	bucket string
	client *storage.Client
}

var _ material.ObjectStore = (*GCSStore)(nil)

func NewGCSStore(ctx context.Context, conf *core.Config) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &GCSStore{bucket: conf.Storage.Bucket, client: client}, nil
}

func (st *GCSStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	w := st.client.Bucket(st.bucket).Object(key).NewWriter(ctx)
	size, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return 0, errors.Wrap(err, "finalizing object")
	}
	return size, nil
}

func (st *GCSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := st.client.Bucket(st.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, material.ErrNotFound
		}
		return nil, errors.Wrapf(err, "reading object %q", key)
	}
	return r, nil
}

func (st *GCSStore) Delete(ctx context.Context, key string) error {
	err := st.client.Bucket(st.bucket).Object(key).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return errors.Wrapf(err, "deleting object %q", key)
	}
	return nil
}

func (st *GCSStore) URL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", st.bucket, key)
}
