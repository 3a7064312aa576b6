package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"orgunit-sync/core/storage/mocks"
	"orgunit-sync/feature/orgunit/models"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	fs := afero.NewMemMapFs()
	client := new(mocks.Client)

	t.Run("File path", func(t *testing.T) {
		loc, err := Resolve("test.xml", fs, client, "snapshots")
		require.NoError(t, err)
		assert.IsType(t, &FileLocation{}, loc)
		assert.Equal(t, "test.xml", loc.String())
	})

	t.Run("Object key", func(t *testing.T) {
		loc, err := Resolve("s3://daily/units.xml", fs, client, "snapshots")
		require.NoError(t, err)
		obj, ok := loc.(*ObjectLocation)
		require.True(t, ok)
		assert.Equal(t, "snapshots", obj.Bucket)
		assert.Equal(t, "daily/units.xml", obj.Key)
		assert.Equal(t, "s3://daily/units.xml", loc.String())
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := Resolve("", fs, client, "snapshots")
		assert.Error(t, err)

		_, err = Resolve("s3://", fs, client, "snapshots")
		assert.ErrorContains(t, err, "no object key")

		_, err = Resolve("s3://units.xml", fs, nil, "snapshots")
		assert.ErrorContains(t, err, "not configured")
	})
}

func TestResolver_Confined(t *testing.T) {
	base := afero.NewMemMapFs()
	r := Resolver{FS: afero.NewBasePathFs(base, "/srv/snapshots"), Client: new(mocks.Client), Bucket: "snapshots", Confined: true}

	for _, ref := range []string{"../escape.xml", "..", "a/../../escape.xml", "/etc/passwd"} {
		_, err := r.Resolve(ref)
		assert.Error(t, err, ref)
	}

	loc, err := r.Resolve("daily/./units.xml")
	require.NoError(t, err)
	require.NoError(t, base.MkdirAll("/srv/snapshots/daily", 0o755))
	require.NoError(t, Save(context.Background(), loc, models.Collection{}))
	exists, err := afero.Exists(base, "/srv/snapshots/daily/units.xml")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = r.Resolve("s3://../still-an-object-key.xml")
	assert.NoError(t, err)

	open := Resolver{FS: base}
	_, err = open.Resolve("../outside.xml")
	assert.NoError(t, err)
}

func TestObjectLocation_Load(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "snapshots", "units.xml", mock.Anything).
		Return(minio.ObjectInfo{Key: "units.xml"}, nil)
	client.On("GetObject", mock.Anything, "snapshots", "units.xml", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(sample))), nil)

	c, err := Load(context.Background(), NewObjectLocation(client, "snapshots", "units.xml"))
	require.NoError(t, err)
	assert.Len(t, c, 2)
	client.AssertExpectations(t)
}

func TestObjectLocation_LoadMissing(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "snapshots", "gone.xml", mock.Anything).
		Return(minio.ObjectInfo{}, errors.New("The specified key does not exist."))

	c, err := Load(context.Background(), NewObjectLocation(client, "snapshots", "gone.xml"))
	assert.Nil(t, c)
	assert.ErrorIs(t, err, models.ErrFormat)
	client.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestObjectLocation_Save(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "snapshots").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "snapshots", mock.Anything).Return(nil)

	var uploaded []byte
	client.On("PutObject", mock.Anything, "snapshots", "out.xml", mock.Anything, mock.Anything,
		mock.MatchedBy(func(opts minio.PutObjectOptions) bool { return opts.ContentType == "application/xml" })).
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), args.Get(4).(int64))
			uploaded = data
		}).
		Return(minio.UploadInfo{}, nil)

	c, err := models.NewCollection("test", models.NewOrgUnit("A", "B", "x"))
	require.NoError(t, err)

	require.NoError(t, Save(context.Background(), NewObjectLocation(client, "snapshots", "out.xml"), c))
	client.AssertExpectations(t)

	decoded, err := Decode(bytes.NewReader(uploaded), "uploaded")
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestObjectLocation_SaveUploadFailure(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "snapshots").Return(true, nil)
	client.On("PutObject", mock.Anything, "snapshots", "out.xml", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))

	err := Save(context.Background(), NewObjectLocation(client, "snapshots", "out.xml"), models.Collection{})
	assert.ErrorContains(t, err, "access denied")
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestBytesSource(t *testing.T) {
	c, err := Load(context.Background(), &BytesSource{Name: "request body", Data: []byte(sample)})
	require.NoError(t, err)
	assert.Len(t, c, 2)

	_, err = Load(context.Background(), &BytesSource{Name: "request body", Data: []byte("not xml")})
	assert.ErrorIs(t, err, models.ErrFormat)
	assert.Contains(t, err.Error(), "request body")
}

func TestResolver(t *testing.T) {
	r := Resolver{FS: afero.NewMemMapFs(), Bucket: "snapshots"}

	loc, err := r.Resolve("local.xml")
	require.NoError(t, err)
	assert.Equal(t, "local.xml", loc.String())

	_, err = r.Resolve("s3://remote.xml")
	assert.ErrorContains(t, err, "not configured")
}
