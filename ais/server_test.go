package ais

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/ec"
	"github.com/stratastore/strata/stats"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	config := cmn.DefaultConfig()
	config.Node.DataDir = t.TempDir()
	cmn.GCO.Put(config)
	statsOnce(t)
	srv := httptest.NewServer(newObjHandler(ec.NewCoordinator(nil, nil, nil, nil)))
	t.Cleanup(srv.Close)
	return srv
}

var statsRegistered bool

func statsOnce(t *testing.T) {
	t.Helper()
	if !statsRegistered {
		stats.Register()
		statsRegistered = true
	}
}

func doReq(t *testing.T, method, url string, body []byte, hdr map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestS3PutGetHeadDelete(t *testing.T) {
	srv := newTestServer(t)
	data := bytes.Repeat([]byte("strata"), 1000)
	url := srv.URL + "/bucket1/dir/object1"

	resp := doReq(t, http.MethodPut, url, data, map[string]string{
		"Content-Type":      "application/x-strata",
		"X-Amz-Meta-Origin": "unit-test",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doReq(t, http.MethodGet, url, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, body))
	require.Equal(t, "application/x-strata", resp.Header.Get("Content-Type"))
	require.Equal(t, "unit-test", resp.Header.Get("X-Amz-Meta-Origin"))
	require.NotEmpty(t, resp.Header.Get("Last-Modified"))

	resp = doReq(t, http.MethodHead, url, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "unit-test", resp.Header.Get("X-Amz-Meta-Origin"))

	resp = doReq(t, http.MethodDelete, url, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doReq(t, http.MethodGet, url, nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	errBody, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(errBody), "NoSuchKey")
}

func TestS3EmptyBody(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/bucket1/empty"

	resp := doReq(t, http.MethodPut, url, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doReq(t, http.MethodGet, url, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Empty(t, body)
	require.Equal(t, "0", resp.Header.Get("Content-Length"))
}

func TestS3BadPaths(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/", "/onlybucket", "/bucket/"} {
		resp := doReq(t, http.MethodGet, srv.URL+path, nil, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestS3DeleteAbsent(t *testing.T) {
	srv := newTestServer(t)
	resp := doReq(t, http.MethodDelete, srv.URL+"/b/never-there", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSplitObjectPath(t *testing.T) {
	for _, tc := range []struct {
		in             string
		bucket, object string
		ok             bool
	}{
		{"/b/o", "b", "o", true},
		{"/b/dir/o", "b", "dir/o", true},
		{"/b/", "", "", false},
		{"/b", "", "", false},
		{"/", "", "", false},
	} {
		b, o, ok := splitObjectPath(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		require.Equal(t, tc.bucket, b, tc.in)
		require.Equal(t, tc.object, o, tc.in)
	}
}
