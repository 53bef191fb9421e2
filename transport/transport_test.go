package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/fs"
)

func newTestNode(t *testing.T) (hostURL, diskRoot string, cli *Client) {
	t.Helper()
	diskRoot = filepath.Join(t.TempDir(), "disk")
	require.NoError(t, os.MkdirAll(diskRoot, 0o750))
	local, err := fs.NewLocalDisks([]string{diskRoot}, 1)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewServer(local).RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL, diskRoot, NewClient()
}

func TestChunkRoundTrip(t *testing.T) {
	hostURL, diskRoot, cli := newTestNode(t)
	ctx := context.Background()
	chunk := bytes.Repeat([]byte{0xab, 0x01}, 4096)

	require.NoError(t, cli.WriteChunk(ctx, hostURL, diskRoot, "b", "o", 3, chunk))

	// the bytes written remotely equal the bytes written locally
	onDisk, err := os.ReadFile(fs.PartPath(diskRoot, "b", "o", 3))
	require.NoError(t, err)
	require.True(t, bytes.Equal(chunk, onDisk))

	got, err := cli.ReadChunk(ctx, hostURL, diskRoot, "b", "o", 3)
	require.NoError(t, err)
	require.True(t, bytes.Equal(chunk, got))
}

func TestXlMetaRoundTrip(t *testing.T) {
	hostURL, diskRoot, cli := newTestNode(t)
	ctx := context.Background()
	meta := []byte(`{"version":1,"format":"xl","stat":{"size":5,"modTime":"t"},"inline":"aGVsbG8="}`)

	require.NoError(t, cli.WriteXlMeta(ctx, hostURL, diskRoot, "b", "o", meta))
	got, err := cli.ReadXlMeta(ctx, hostURL, diskRoot, "b", "o")
	require.NoError(t, err)
	require.JSONEq(t, string(meta), string(got))
}

func TestReadMissingMapsToNotFound(t *testing.T) {
	hostURL, diskRoot, cli := newTestNode(t)
	ctx := context.Background()

	_, err := cli.ReadChunk(ctx, hostURL, diskRoot, "b", "absent", 1)
	require.True(t, cmn.IsKind(err, cmn.KindNotFound), "got %v", err)

	_, err = cli.ReadXlMeta(ctx, hostURL, diskRoot, "b", "absent")
	require.True(t, cmn.IsKind(err, cmn.KindNotFound), "got %v", err)
}

func TestForeignDiskRejected(t *testing.T) {
	hostURL, _, cli := newTestNode(t)
	err := cli.WriteChunk(context.Background(), hostURL, "/not/our/disk", "b", "o", 1, []byte("x"))
	require.True(t, cmn.IsKind(err, cmn.KindInvalidArg), "got %v", err)
}

func TestBadRequestsRejected(t *testing.T) {
	hostURL, diskRoot, cli := newTestNode(t)
	ctx := context.Background()

	err := cli.WriteChunk(ctx, hostURL, diskRoot, "b", "o", 0, []byte("x"))
	require.True(t, cmn.IsKind(err, cmn.KindInvalidArg), "chunk index 0: %v", err)

	err = cli.WriteChunk(ctx, hostURL, diskRoot, "..", "o", 1, []byte("x"))
	require.True(t, cmn.IsKind(err, cmn.KindInvalidArg), "bucket ..: %v", err)

	err = cli.WriteXlMeta(ctx, hostURL, diskRoot, "b", "o", nil)
	require.True(t, cmn.IsKind(err, cmn.KindInvalidArg), "empty meta: %v", err)
}

func TestUnreachableNode(t *testing.T) {
	cli := NewClient()
	err := cli.WriteChunk(context.Background(), "http://127.0.0.1:1", "/d", "b", "o", 1, []byte("x"))
	require.Error(t, err)
	kind := cmn.ErrKind(err)
	require.True(t, kind == cmn.KindNetwork || kind == cmn.KindTimeout, "got %s", kind)
}
