package transport

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cmn/cos"
	"github.com/stratastore/strata/fs"
)

// Server answers storage RPCs against this node's local disks. Requests
// naming a disk path the node does not own are rejected.
type Server struct {
	local *fs.LocalDisks
}

func NewServer(local *fs.LocalDisks) *Server { return &Server{local: local} }

// RegisterHandlers mounts the four storage methods on the node mux.
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc(cmn.URLPathRPC+cmn.RPCWriteChunk, s.handle(s.writeChunk))
	mux.HandleFunc(cmn.URLPathRPC+cmn.RPCReadChunk, s.handle(s.readChunk))
	mux.HandleFunc(cmn.URLPathRPC+cmn.RPCWriteXlMeta, s.handle(s.writeXlMeta))
	mux.HandleFunc(cmn.URLPathRPC+cmn.RPCReadXlMeta, s.handle(s.readXlMeta))
}

func (s *Server) handle(fn func(*Request) (*Response, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeResponse(w, errResponse(cmn.NewNetworkError(err, "read request")))
			return
		}
		var req Request
		if err := cmn.JSON.Unmarshal(body, &req); err != nil {
			writeResponse(w, errResponse(cmn.NewInvalidArgError("malformed request: %v", err)))
			return
		}
		if err := s.validate(&req); err != nil {
			writeResponse(w, errResponse(err))
			return
		}
		resp, err := fn(&req)
		if err != nil {
			writeResponse(w, errResponse(err))
			return
		}
		resp.Success = true
		writeResponse(w, resp)
	}
}

func (s *Server) validate(req *Request) error {
	if err := fs.ValidateName(req.Bucket); err != nil {
		return err
	}
	if err := fs.ValidateName(req.Object); err != nil {
		return err
	}
	if req.DiskPath == "" || !s.local.Owns(req.DiskPath) {
		return cmn.NewInvalidArgError("disk path %q not served by this node", req.DiskPath)
	}
	return nil
}

func (s *Server) writeChunk(req *Request) (*Response, error) {
	if req.ChunkIndex < 1 {
		return nil, cmn.NewInvalidArgError("chunk index %d", req.ChunkIndex)
	}
	data, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		return nil, cmn.NewInvalidArgError("malformed chunk payload: %v", err)
	}
	if req.ChunkSize != 0 && req.ChunkSize != len(data) {
		return nil, cmn.NewInvalidArgError("chunk size %d != payload %d", req.ChunkSize, len(data))
	}
	fqn := fs.PartPath(req.DiskPath, req.Bucket, req.Object, req.ChunkIndex)
	if err := cos.WriteFileAtomic(fqn, data); err != nil {
		return nil, err
	}
	return &Response{}, nil
}

func (s *Server) readChunk(req *Request) (*Response, error) {
	if req.ChunkIndex < 1 {
		return nil, cmn.NewInvalidArgError("chunk index %d", req.ChunkIndex)
	}
	data, err := cos.ReadFile(fs.PartPath(req.DiskPath, req.Bucket, req.Object, req.ChunkIndex))
	if err != nil {
		return nil, err
	}
	return &Response{Payload: base64.StdEncoding.EncodeToString(data)}, nil
}

func (s *Server) writeXlMeta(req *Request) (*Response, error) {
	if len(req.Meta) == 0 || !cmn.JSON.Valid(req.Meta) {
		return nil, cmn.NewInvalidArgError("missing or malformed xl.meta body")
	}
	fqn := fs.MetaPath(req.DiskPath, req.Bucket, req.Object)
	if err := cos.WriteFileAtomic(fqn, req.Meta); err != nil {
		return nil, err
	}
	return &Response{}, nil
}

func (s *Server) readXlMeta(req *Request) (*Response, error) {
	b, err := cos.ReadFile(fs.MetaPath(req.DiskPath, req.Bucket, req.Object))
	if err != nil {
		return nil, err
	}
	return &Response{Meta: b}, nil
}

func errResponse(err error) *Response {
	return &Response{ErrorCode: cmn.ErrKind(err).String(), Message: err.Error()}
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := cmn.JSON.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to write rpc response")
	}
}
