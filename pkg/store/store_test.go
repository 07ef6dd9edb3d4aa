package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDirStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table_wiki_1_Page_0.csv"), []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passage_wiki_1_Page_1.txt"), []byte("Hello."), 0o644))

	st := NewDirStore(dir)
	ctx := context.Background()

	t.Run("lists_all_files_sorted", func(t *testing.T) {
		t.Parallel()

		names, err := st.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{
			"passage_wiki_1_Page_1.txt",
			"table_wiki_1_Page_0.csv",
		}, names)
	})

	t.Run("fetches_bytes", func(t *testing.T) {
		t.Parallel()

		data, err := st.Fetch(ctx, "table_wiki_1_Page_0.csv")
		require.NoError(t, err)
		require.Equal(t, "a,b\n1,2\n", string(data))
	})

	t.Run("missing_file_is_not_found", func(t *testing.T) {
		t.Parallel()

		_, err := st.Fetch(ctx, "table_wiki_9_Nope_0.csv")
		var nf *FileNotFoundError
		require.ErrorAs(t, err, &nf)
		require.Equal(t, "table_wiki_9_Nope_0.csv", nf.Name)
	})

	t.Run("rejects_path_escape", func(t *testing.T) {
		t.Parallel()

		_, err := st.Fetch(ctx, "../outside.txt")
		var nf *FileNotFoundError
		require.ErrorAs(t, err, &nf)
	})
}

// fakeS3 is an in-memory S3API that can fail a configurable number of
// times before succeeding, to exercise the retry path.
type fakeS3 struct {
	objects   map[string][]byte
	failures  int
	getCalls  int
	listCalls int
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.getCalls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("transient: connection reset")
	}
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listCalls++
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		k := key
		out.Contents = append(out.Contents, types.Object{Key: &k})
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("config_requires_bucket", func(t *testing.T) {
		t.Parallel()

		_, err := NewS3Store(S3StoreConfig{Logger: testLogger()})
		require.Error(t, err)
	})

	t.Run("fetch_retries_transient_failures", func(t *testing.T) {
		t.Parallel()

		fake := &fakeS3{
			objects:  map[string][]byte{"table_wiki_1_Page_0.csv": []byte("a,b\n")},
			failures: 2,
		}
		st, err := NewS3Store(S3StoreConfig{Logger: testLogger(), Bucket: "corpus", Client: fake})
		require.NoError(t, err)

		data, err := st.Fetch(ctx, "table_wiki_1_Page_0.csv")
		require.NoError(t, err)
		require.Equal(t, "a,b\n", string(data))
		require.Equal(t, 3, fake.getCalls)
	})

	t.Run("fetch_caches_bytes", func(t *testing.T) {
		t.Parallel()

		fake := &fakeS3{objects: map[string][]byte{"table_wiki_1_Page_0.csv": []byte("a,b\n")}}
		st, err := NewS3Store(S3StoreConfig{Logger: testLogger(), Bucket: "corpus", Client: fake})
		require.NoError(t, err)

		_, err = st.Fetch(ctx, "table_wiki_1_Page_0.csv")
		require.NoError(t, err)
		_, err = st.Fetch(ctx, "table_wiki_1_Page_0.csv")
		require.NoError(t, err)
		require.Equal(t, 1, fake.getCalls)
	})

	t.Run("missing_key_is_not_retried", func(t *testing.T) {
		t.Parallel()

		fake := &fakeS3{objects: map[string][]byte{}}
		st, err := NewS3Store(S3StoreConfig{Logger: testLogger(), Bucket: "corpus", Client: fake})
		require.NoError(t, err)

		_, err = st.Fetch(ctx, "table_wiki_9_Nope_0.csv")
		var nf *FileNotFoundError
		require.ErrorAs(t, err, &nf)
		require.Equal(t, 1, fake.getCalls)
	})

	t.Run("list_strips_prefix", func(t *testing.T) {
		t.Parallel()

		fake := &fakeS3{objects: map[string][]byte{"corpus/table_wiki_1_Page_0.csv": []byte("a\n")}}
		st, err := NewS3Store(S3StoreConfig{Logger: testLogger(), Bucket: "b", Prefix: "corpus", Client: fake})
		require.NoError(t, err)

		names, err := st.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"table_wiki_1_Page_0.csv"}, names)
	})
}
