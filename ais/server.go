package ais

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/ec"
	"github.com/stratastore/strata/stats"
)

// objHandler is the thin S3 adapter: it parses /<bucket>/<object>, reads
// the body, and delegates everything else to the object coordinator.
type objHandler struct {
	coord *ec.Coordinator
}

func newObjHandler(coord *ec.Coordinator) *objHandler { return &objHandler{coord: coord} }

func (h *objHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, object, ok := splitObjectPath(r.URL.Path)
	if !ok {
		writeS3Error(w, r, cmn.NewInvalidArgError("expecting /<bucket>/<object>"))
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.putObject(w, r, bucket, object)
	case http.MethodGet:
		h.getObject(w, r, bucket, object)
	case http.MethodHead:
		h.headObject(w, r, bucket, object)
	case http.MethodDelete:
		h.deleteObject(w, r, bucket, object)
	default:
		writeS3Error(w, r, cmn.NewUnsupportedError("method %s", r.Method))
	}
}

func splitObjectPath(path string) (bucket, object string, ok bool) {
	path = strings.TrimPrefix(path, "/")
	i := strings.IndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

func (h *objHandler) putObject(w http.ResponseWriter, r *http.Request, bucket, object string) {
	started := time.Now()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeS3Error(w, r, cmn.NewNetworkError(err, "read body"))
		return
	}
	if err := h.coord.PutObject(r.Context(), bucket, object, data, userMetaFromHeader(r.Header)); err != nil {
		countErr(err)
		writeS3Error(w, r, err)
		return
	}
	stats.ObservePut(started)
	w.WriteHeader(http.StatusOK)
}

func (h *objHandler) getObject(w http.ResponseWriter, r *http.Request, bucket, object string) {
	started := time.Now()
	data, md, err := h.coord.GetObject(r.Context(), bucket, object)
	if err != nil {
		countErr(err)
		writeS3Error(w, r, err)
		return
	}
	stats.ObserveGet(started)
	setObjectHeaders(w.Header(), md, int64(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("client went away mid-GET")
	}
}

func (h *objHandler) headObject(w http.ResponseWriter, r *http.Request, bucket, object string) {
	md, err := h.coord.StatObject(r.Context(), bucket, object)
	if err != nil {
		countErr(err)
		writeS3Error(w, r, err)
		return
	}
	setObjectHeaders(w.Header(), md, md.Stat.Size)
	w.WriteHeader(http.StatusOK)
}

func (h *objHandler) deleteObject(w http.ResponseWriter, r *http.Request, bucket, object string) {
	if err := h.coord.DeleteObject(r.Context(), bucket, object); err != nil {
		countErr(err)
		writeS3Error(w, r, err)
		return
	}
	stats.DeleteCount.Inc()
	w.WriteHeader(http.StatusNoContent)
}

func setObjectHeaders(hdr http.Header, md *ec.Metadata, size int64) {
	setHeaderFromMeta(hdr, md.Meta)
	hdr.Set("Content-Length", strconv.FormatInt(size, 10))
	if md.Erasure != nil && len(md.Erasure.Checksums) > 0 {
		hdr.Set("ETag", `"`+md.Erasure.Checksums[0].Hash+`"`)
	}
	if t, err := time.Parse(time.RFC3339Nano, md.Stat.ModTime); err == nil {
		hdr.Set("Last-Modified", FormatTime(t))
	}
}

func countErr(err error) {
	stats.ErrCount.WithLabelValues(cmn.ErrKind(err).String()).Inc()
}
