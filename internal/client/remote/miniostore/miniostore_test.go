package miniostore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	makeErr   error
	exists    bool
	existsErr error
	putErr    error

	putKey  string
	putBody []byte
	putOpts minio.PutObjectOptions
}

func (f *fakeClient) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	return f.makeErr
}

func (f *fakeClient) BucketExists(context.Context, string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeClient) PutObject(_ context.Context, _, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.putKey = key
	f.putBody, _ = io.ReadAll(r)
	f.putOpts = opts
	return minio.UploadInfo{Key: key, Size: size}, nil
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, newStore(&fakeClient{}, "media", "", nil).ensureBucket(ctx))

	existing := &fakeClient{makeErr: errors.New("BucketAlreadyOwnedByYou"), exists: true}
	require.NoError(t, newStore(existing, "media", "", nil).ensureBucket(ctx))

	broken := &fakeClient{makeErr: errors.New("denied"), existsErr: errors.New("denied too")}
	require.Error(t, newStore(broken, "media", "", nil).ensureBucket(ctx))

	missing := &fakeClient{makeErr: errors.New("denied")}
	require.Error(t, newStore(missing, "media", "", nil).ensureBucket(ctx))
}

func TestPutAndURL(t *testing.T) {
	fc := &fakeClient{}
	s := newStore(fc, "media", "http://localhost:9000/media/", nil)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "listings/l1/a.webp", []byte("webp"), "image/webp"))
	require.Equal(t, "listings/l1/a.webp", fc.putKey)
	require.Equal(t, "webp", string(fc.putBody))
	require.Equal(t, "image/webp", fc.putOpts.ContentType)

	u, err := s.URL(ctx, "listings/l1/a.webp")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9000/media/listings/l1/a.webp", u)

	fc.putErr = errors.New("offline")
	require.Error(t, s.Put(ctx, "k", nil, ""))
}
