package transport

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/stratastore/strata/cmn"
)

const defaultTimeout = 30 * time.Second

// Client performs storage RPCs against peer nodes. Each call's deadline is
// the earlier of the request context's deadline and the default timeout.
type Client struct {
	cli     *fasthttp.Client
	timeout time.Duration
}

func NewClient() *Client {
	return &Client{
		cli: &fasthttp.Client{
			MaxIdleConnDuration: time.Minute,
			ReadBufferSize:      64 * cmn.KiB,
		},
		timeout: defaultTimeout,
	}
}

func (c *Client) call(ctx context.Context, hostURL, method string, req *Request) (*Response, error) {
	body, err := cmn.JSON.Marshal(req)
	if err != nil {
		return nil, cmn.NewError(cmn.KindInvalidArg, "encode rpc %s: %v", method, err)
	}
	hreq := fasthttp.AcquireRequest()
	hresp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(hreq)
		fasthttp.ReleaseResponse(hresp)
	}()
	hreq.SetRequestURI(hostURL + cmn.URLPathRPC + method)
	hreq.Header.SetMethod(fasthttp.MethodPost)
	hreq.Header.SetContentType("application/json")
	hreq.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.cli.DoDeadline(hreq, hresp, deadline); err != nil {
		if err == fasthttp.ErrTimeout {
			return nil, cmn.NewTimeoutError("rpc %s to %s", method, hostURL)
		}
		return nil, cmn.NewNetworkError(err, "rpc %s to %s", method, hostURL)
	}
	if code := hresp.StatusCode(); code != fasthttp.StatusOK {
		return nil, cmn.NewNetworkError(nil, "rpc %s to %s: http %d", method, hostURL, code)
	}
	var resp Response
	if err := cmn.JSON.Unmarshal(hresp.Body(), &resp); err != nil {
		return nil, cmn.NewNetworkError(err, "rpc %s to %s: malformed reply", method, hostURL)
	}
	if !resp.Success {
		return nil, cmn.NewError(cmn.ParseKind(resp.ErrorCode), "rpc %s to %s: %s",
			method, hostURL, resp.Message)
	}
	return &resp, nil
}

// WriteChunk writes one chunk on the remote disk with the same semantics
// as a local atomic write: the bytes written remotely equal the bytes that
// would have been written locally.
func (c *Client) WriteChunk(ctx context.Context, hostURL, diskPath, bucket, object string, idx int, data []byte) error {
	_, err := c.call(ctx, hostURL, cmn.RPCWriteChunk, &Request{
		Bucket:     bucket,
		Object:     object,
		DiskPath:   diskPath,
		ChunkIndex: idx,
		ChunkSize:  len(data),
		Payload:    base64.StdEncoding.EncodeToString(data),
	})
	return err
}

func (c *Client) ReadChunk(ctx context.Context, hostURL, diskPath, bucket, object string, idx int) ([]byte, error) {
	resp, err := c.call(ctx, hostURL, cmn.RPCReadChunk, &Request{
		Bucket:     bucket,
		Object:     object,
		DiskPath:   diskPath,
		ChunkIndex: idx,
	})
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(resp.Payload)
	if err != nil {
		return nil, cmn.NewNetworkError(err, "rpc readChunk: malformed payload")
	}
	return data, nil
}

func (c *Client) WriteXlMeta(ctx context.Context, hostURL, diskPath, bucket, object string, meta []byte) error {
	_, err := c.call(ctx, hostURL, cmn.RPCWriteXlMeta, &Request{
		Bucket:   bucket,
		Object:   object,
		DiskPath: diskPath,
		Meta:     meta,
	})
	return err
}

func (c *Client) ReadXlMeta(ctx context.Context, hostURL, diskPath, bucket, object string) ([]byte, error) {
	resp, err := c.call(ctx, hostURL, cmn.RPCReadXlMeta, &Request{
		Bucket:   bucket,
		Object:   object,
		DiskPath: diskPath,
	})
	if err != nil {
		return nil, err
	}
	return resp.Meta, nil
}
