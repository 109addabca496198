package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	objects   map[string][]byte
	putErr    error
	deleteErr error
	puts      []*s3.PutObjectInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string][]byte{}}
}

func (f *fakeAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeAPI) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func testConfig() *Config {
	return &Config{
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		Region:          "auto",
		BucketName:      "proofs",
		PublicURLBase:   "https://cdn.example.com",
		Folder:          "events",
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"My Photo (1).jpg": "My_Photo_1.jpg",
		"a  b\tc.png":      "a_b_c.png",
		"ümlaut.jpg":       "mlaut.jpg",
		"***":              "photo",
		"":                 "photo",
		"DSC_0001.JPG":     "DSC_0001.JPG",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFileName(in), in)
	}
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1717243200123)
	assert.Equal(t, "events/abc/1717243200123-IMG_1.jpg", ObjectKey("/events/abc/", now, "IMG 1.jpg"))
	assert.Equal(t, "uploads/1717243200123-x.jpg", ObjectKey("", now, "x.jpg"))
}

func TestConfigURLs(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "https://cdn.example.com/events/a.jpg", cfg.PublicURL("events/a.jpg"))
	assert.Equal(t, "events/a.jpg", cfg.KeyFromURL("https://cdn.example.com/events/a.jpg"))
	assert.Equal(t, "events/a.jpg", cfg.KeyFromURL("events/a.jpg"))
	assert.Equal(t, "events/e1", cfg.EventFolder("e1"))

	cfg.Folder = ""
	assert.Equal(t, "e1", cfg.EventFolder("e1"))
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())
	cfg.BucketName = ""
	assert.Error(t, cfg.Validate())
}

func TestClient_UploadAndDelete(t *testing.T) {
	api := newFakeAPI()
	c := newClientWithAPI(api, testConfig())
	c.now = func() time.Time { return time.UnixMilli(42) }

	res, err := c.Upload(context.Background(), strings.NewReader("jpegdata"), 8, "Beach Day.jpg", "", "events/e1")
	require.NoError(t, err)
	assert.Equal(t, "events/e1/42-Beach_Day.jpg", res.Key)
	assert.Equal(t, "https://cdn.example.com/events/e1/42-Beach_Day.jpg", res.URL)
	assert.Equal(t, "image/jpeg", res.ContentType)
	require.Len(t, api.puts, 1)
	assert.Equal(t, int64(8), aws.ToInt64(api.puts[0].ContentLength))

	ok, err := c.Exists(context.Background(), res.URL)
	require.NoError(t, err)
	assert.True(t, ok)

	body, err := c.Get(context.Background(), res.Key)
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	body.Close()
	assert.Equal(t, "jpegdata", string(data))

	require.NoError(t, c.Delete(context.Background(), res.URL))
	ok, err = c.Exists(context.Background(), res.Key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_UploadError(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("boom")
	c := newClientWithAPI(api, testConfig())

	_, err := c.Upload(context.Background(), strings.NewReader("x"), 1, "a.jpg", "image/jpeg", "f")
	var up *UploadError
	require.ErrorAs(t, err, &up)
	assert.True(t, strings.HasPrefix(up.Key, "f/"))
	assert.Equal(t, "Upload failed: boom", UserMessage(err))
}

func TestClient_DeleteErrorIsReturnedNotPanicked(t *testing.T) {
	api := newFakeAPI()
	api.deleteErr = errors.New("denied")
	c := newClientWithAPI(api, testConfig())

	err := c.Delete(context.Background(), "https://cdn.example.com/events/x.jpg")
	var de *DeleteError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "events/x.jpg", de.Key)
	assert.NoError(t, c.Delete(context.Background(), ""))
}

func TestClient_PresignUnavailable(t *testing.T) {
	c := newClientWithAPI(newFakeAPI(), testConfig())
	_, err := c.PresignUpload(context.Background(), "a.jpg", "", "f")
	assert.Error(t, err)
}

func TestClient_Presign(t *testing.T) {
	c := newClientWithAPI(newFakeAPI(), testConfig())
	c.now = func() time.Time { return time.UnixMilli(7) }
	c.presign = func(ctx context.Context, in *s3.PutObjectInput, ttl time.Duration) (string, error) {
		return "https://bucket.example/" + aws.ToString(in.Key) + "?sig=1", nil
	}

	up, err := c.PresignUpload(context.Background(), "x y.png", "", "events/e")
	require.NoError(t, err)
	assert.Equal(t, "events/e/7-x_y.png", up.Key)
	assert.Equal(t, "PUT", up.Method)
	assert.Equal(t, "image/png", up.Headers["Content-Type"])
	assert.Equal(t, "https://cdn.example.com/events/e/7-x_y.png", up.PublicURL)
}

func TestClassifyBrowserFailure(t *testing.T) {
	err := ClassifyBrowserFailure("proofs", "k", "TypeError: Failed to fetch")
	var cors *CORSError
	require.ErrorAs(t, err, &cors)
	msg := UserMessage(err)
	assert.Contains(t, msg, "CORS")
	assert.Contains(t, msg, "'proofs'")
	assert.Contains(t, msg, `"PUT", "GET", "DELETE"`)

	var up *UploadError
	assert.ErrorAs(t, err, &up)

	err = ClassifyBrowserFailure("proofs", "k", "HTTP 413")
	assert.False(t, errors.As(err, &cors))
	assert.ErrorAs(t, err, &up)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", getContentType("A.JPEG"))
	assert.Equal(t, "image/webp", getContentType("b.webp"))
	assert.Equal(t, "application/octet-stream", getContentType("c"))
}

func TestLocalStore(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	res, err := store.Upload(ctx, strings.NewReader("abc"), 3, "a b.jpg", "", "events/e1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/events/e1/"))
	assert.Equal(t, int64(3), res.Size)

	ok, err := store.Exists(ctx, res.URL)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := store.Get(ctx, res.Key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "abc", string(data))

	require.NoError(t, store.Delete(ctx, res.URL))
	require.NoError(t, store.Delete(ctx, res.URL))
	ok, err = store.Exists(ctx, res.Key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.PresignUpload(ctx, "a.jpg", "", "x")
	assert.Error(t, err)
}

func TestLocalStore_KeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/uploads")
	require.NoError(t, err)
	res, err := store.Put(context.Background(), "../../etc/evil", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)
	ok, err := store.Exists(context.Background(), res.Key)
	require.NoError(t, err)
	assert.True(t, ok)
	p, _ := store.path(res.Key)
	assert.True(t, strings.HasPrefix(p, root))
}
