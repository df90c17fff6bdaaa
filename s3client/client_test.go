package s3client

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeS3 serves path-style PutObject and GetObject requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := ioutil.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeS3) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	client, err := NewWithConfig(Config{
		BucketName:  "archive",
		Region:      "ap-south-1",
		Endpoint:    server.URL,
		AccessKeyID: "id",
		AccessKey:   "secret",
		KeyPrefix:   "screenings",
	})
	require.NoError(t, err)
	return client, fake
}

func TestKey(t *testing.T) {
	client, _ := newTestClient(t)
	createdAt := time.Date(2024, 3, 5, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	require.Equal(t, "screenings/2024/03/05/abc.json", client.Key("abc", createdAt))
}

func TestArchiveAndFetch(t *testing.T) {
	ctx := context.Background()
	client, fake := newTestClient(t)

	body := []byte(`{"id":"abc"}`)
	require.NoError(t, client.Archive(ctx, "screenings/2024/03/05/abc.json", body))
	require.Equal(t, body, fake.objects["/archive/screenings/2024/03/05/abc.json"])
	require.Equal(t, "application/json", fake.types["/archive/screenings/2024/03/05/abc.json"])

	fetched, err := client.Fetch(ctx, "screenings/2024/03/05/abc.json")
	require.NoError(t, err)
	require.Equal(t, body, fetched)

	_, err = client.Fetch(ctx, "screenings/missing.json")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "screenings/missing.json"))
}

func TestNewRequiresBucket(t *testing.T) {
	os.Unsetenv("CNIS_ARCHIVE_BUCKET")
	_, err := New()
	require.Error(t, err)
}
