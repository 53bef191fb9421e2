package ais

import (
	"io"
	"net/http"

	"github.com/stratastore/strata/cluster"
	"github.com/stratastore/strata/cmn"
)

// Admin surface for topology evolution. Each mutation goes through the
// topology manager, which persists with quorum before making the change
// visible.

type (
	addSetReq struct {
		PoolIdx int                `json:"pool_idx"`
		Disks   []cluster.DiskInfo `json:"disks"`
	}
	setStateReq struct {
		PoolIdx int `json:"pool_idx"`
		SetIdx  int `json:"set_idx"`
	}
)

func registerAdminHandlers(mux *http.ServeMux) {
	mux.HandleFunc(cmn.URLPathAdmin+"topology", handleTopoGet)
	mux.HandleFunc(cmn.URLPathAdmin+"topology/add-pool", handleAddPool)
	mux.HandleFunc(cmn.URLPathAdmin+"topology/add-set", handleAddSet)
	mux.HandleFunc(cmn.URLPathAdmin+"topology/drain", handleDrain)
	mux.HandleFunc(cmn.URLPathAdmin+"topology/remove", handleRemove)
}

func handleTopoGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeS3Error(w, r, cmn.NewUnsupportedError("method %s", r.Method))
		return
	}
	topo, err := cluster.GetTopo()
	if err != nil {
		writeS3Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(topo.Marshal())
}

func handleAddPool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeS3Error(w, r, cmn.NewUnsupportedError("method %s", r.Method))
		return
	}
	if err := cluster.AddPool(); err != nil {
		writeS3Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func handleAddSet(w http.ResponseWriter, r *http.Request) {
	var req addSetReq
	if err := decodeAdminBody(r, &req); err != nil {
		writeS3Error(w, r, err)
		return
	}
	if err := cluster.AddSet(req.PoolIdx, req.Disks); err != nil {
		writeS3Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func handleDrain(w http.ResponseWriter, r *http.Request) {
	var req setStateReq
	if err := decodeAdminBody(r, &req); err != nil {
		writeS3Error(w, r, err)
		return
	}
	if err := cluster.MarkDraining(req.PoolIdx, req.SetIdx); err != nil {
		writeS3Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func handleRemove(w http.ResponseWriter, r *http.Request) {
	var req setStateReq
	if err := decodeAdminBody(r, &req); err != nil {
		writeS3Error(w, r, err)
		return
	}
	if err := cluster.MarkRemoved(req.PoolIdx, req.SetIdx); err != nil {
		writeS3Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func decodeAdminBody(r *http.Request, v interface{}) error {
	if r.Method != http.MethodPost {
		return cmn.NewUnsupportedError("method %s", r.Method)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return cmn.NewNetworkError(err, "read body")
	}
	if err := cmn.JSON.Unmarshal(body, v); err != nil {
		return cmn.NewInvalidArgError("malformed body: %v", err)
	}
	return nil
}
