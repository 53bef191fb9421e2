// Package ais provides the node daemon: the thin S3-compatible HTTP
// surface over the object coordinator, the storage RPC endpoints, and the
// admin/health/metrics routes.
package ais

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cmn/cos"
)

// S3-style XML error body. Some S3 clients refuse JSON errors outright.
type s3Error struct {
	XMLName  xml.Name `xml:"Error"`
	Code     string   `xml:"Code"`
	Message  string   `xml:"Message"`
	Resource string   `xml:"Resource"`
}

func s3ErrCode(kind cmn.Kind) (string, int) {
	switch kind {
	case cmn.KindNotFound:
		return "NoSuchKey", http.StatusNotFound
	case cmn.KindInvalidArg:
		return "InvalidArgument", http.StatusBadRequest
	case cmn.KindExists:
		return "BucketAlreadyExists", http.StatusConflict
	case cmn.KindQuorum:
		return "ServiceUnavailable", http.StatusServiceUnavailable
	case cmn.KindTimeout:
		return "RequestTimeout", http.StatusGatewayTimeout
	case cmn.KindNetwork:
		return "ServiceUnavailable", http.StatusBadGateway
	case cmn.KindUnsupported:
		return "NotImplemented", http.StatusNotImplemented
	default:
		return "InternalError", http.StatusInternalServerError
	}
}

func writeS3Error(w http.ResponseWriter, r *http.Request, err error) {
	if r.Body != nil {
		cos.DrainReader(r.Body)
	}
	code, status := s3ErrCode(cmn.ErrKind(err))
	body, merr := xml.Marshal(&s3Error{Code: code, Message: err.Error(), Resource: r.URL.Path})
	if merr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	w.Write([]byte(xml.Header))
	w.Write(body)
}

// FormatTime renders a timestamp the way S3 clients expect:
// "%a, %d %b %Y %H:%M:%S GMT".
func FormatTime(t time.Time) string {
	s := t.UTC().Format(time.RFC1123)
	return strings.Replace(s, "UTC", "GMT", 1)
}

// userMetaFromHeader extracts content-type and x-amz-meta-* headers into
// the object's stored metadata map.
func userMetaFromHeader(hdr http.Header) map[string]string {
	meta := make(map[string]string, 2)
	if ct := hdr.Get("Content-Type"); ct != "" {
		meta[cmn.HeaderContentType] = ct
	}
	for name, vals := range hdr {
		if len(vals) == 0 {
			continue
		}
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, cmn.AmzMetaPrefix) {
			meta[lower] = vals[0]
		}
	}
	return meta
}

// setHeaderFromMeta fills response headers from stored object metadata.
func setHeaderFromMeta(hdr http.Header, meta map[string]string) {
	for k, v := range meta {
		switch {
		case k == cmn.HeaderContentType:
			hdr.Set("Content-Type", v)
		case strings.HasPrefix(k, cmn.AmzMetaPrefix):
			hdr.Set(k, v)
		}
	}
}
