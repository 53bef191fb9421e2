package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stratastore/strata/cluster"
	"github.com/stratastore/strata/cmn"
)

// Topology subcommands drive the node's admin surface over HTTP; the node
// serialises them through its topology manager.
func newTopologyCmd() *cobra.Command {
	var node string
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Inspect and evolve the cluster topology",
	}
	cmd.PersistentFlags().StringVarP(&node, "node", "n", "http://127.0.0.1:9000", "node base URL")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current topology document",
		RunE: func(_ *cobra.Command, _ []string) error {
			body, err := adminCall(node, http.MethodGet, "topology", nil)
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}

	addPool := &cobra.Command{
		Use:   "add-pool",
		Short: "Append a new empty pool",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := adminCall(node, http.MethodPost, "topology/add-pool", nil)
			return err
		},
	}

	var (
		poolIdx int
		setIdx  int
		disks   []string
	)
	addSet := &cobra.Command{
		Use:   "add-set",
		Short: "Append an active set of disks to a pool",
		RunE: func(_ *cobra.Command, _ []string) error {
			infos := make([]cluster.DiskInfo, 0, len(disks))
			for _, arg := range disks {
				expanded, err := cluster.ExpandEllipses(arg)
				if err != nil {
					return err
				}
				for _, e := range expanded {
					infos = append(infos, cluster.DiskInfo{UUID: cmn.GenDiskID(), Endpoint: e})
				}
			}
			body := cmn.MustMarshal(map[string]interface{}{"pool_idx": poolIdx, "disks": infos})
			_, err := adminCall(node, http.MethodPost, "topology/add-set", body)
			return err
		},
	}
	addSet.Flags().IntVar(&poolIdx, "pool", 0, "pool index")
	addSet.Flags().StringSliceVarP(&disks, "disks", "d", nil, "disk endpoints for the new set")
	addSet.MarkFlagRequired("disks")

	drain := &cobra.Command{
		Use:   "drain",
		Short: "Mark a set draining",
		RunE: func(_ *cobra.Command, _ []string) error {
			body := cmn.MustMarshal(map[string]int{"pool_idx": poolIdx, "set_idx": setIdx})
			_, err := adminCall(node, http.MethodPost, "topology/drain", body)
			return err
		},
	}
	drain.Flags().IntVar(&poolIdx, "pool", 0, "pool index")
	drain.Flags().IntVar(&setIdx, "set", 0, "set index")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Mark a draining set removed",
		RunE: func(_ *cobra.Command, _ []string) error {
			body := cmn.MustMarshal(map[string]int{"pool_idx": poolIdx, "set_idx": setIdx})
			_, err := adminCall(node, http.MethodPost, "topology/remove", body)
			return err
		},
	}
	remove.Flags().IntVar(&poolIdx, "pool", 0, "pool index")
	remove.Flags().IntVar(&setIdx, "set", 0, "set index")

	cmd.AddCommand(show, addPool, addSet, drain, remove)
	return cmd
}

func adminCall(node, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, node+cmn.URLPathAdmin+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, cmn.NewInvalidArgError("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, cmn.NewNetworkError(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cmn.NewNetworkError(err, "%s %s", method, path)
	}
	if resp.StatusCode >= 300 {
		return nil, cmn.NewError(cmn.KindNetwork, "%s %s: http %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(out)))
	}
	return out, nil
}
