package ais

import (
	"net/http"

	"github.com/stratastore/strata/cluster"
	"github.com/stratastore/strata/cmn"
)

type healthStatus struct {
	Status       string `json:"status"`
	Formatted    bool   `json:"formatted"`
	DeploymentID string `json:"deployment_id,omitempty"`
	Generation   int64  `json:"generation"`
	ActiveSets   int    `json:"active_sets"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	hs := healthStatus{Status: "ok"}
	if f := cluster.FormatCache.Get(); f != nil {
		hs.Formatted = true
		hs.DeploymentID = f.ID
	}
	if topo := cluster.TopoCache.Get(); topo != nil {
		hs.Generation = topo.Generation
		hs.ActiveSets = topo.CountActiveSets()
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(cmn.MustMarshal(hs))
}
