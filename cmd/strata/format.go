package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stratastore/strata/cluster"
	"github.com/stratastore/strata/cmn"
)

// newFormatCmd creates the cluster identity: expand the endpoint
// arguments, group them into erasure sets, synthesize the format
// document, replicate it to every local disk, and persist the initial
// topology with quorum.
func newFormatCmd() *cobra.Command {
	var (
		endpoints   []string
		disksPerSet int
	)
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Format a new cluster across the given disk endpoints",
		RunE: func(_ *cobra.Command, _ []string) error {
			cmn.InitShortID(uint64(time.Now().UnixNano()))
			return runFormat(endpoints, disksPerSet)
		},
	}
	cmd.Flags().StringSliceVarP(&endpoints, "endpoints", "e", nil,
		"disk endpoints; paths or URLs, {A...B} braces expand")
	cmd.Flags().IntVarP(&disksPerSet, "set-size", "s", 0, "disks per erasure set")
	cmd.MarkFlagRequired("endpoints")
	cmd.MarkFlagRequired("set-size")
	return cmd
}

func runFormat(args []string, disksPerSet int) error {
	eps, err := cluster.NewEndpoints(args)
	if err != nil {
		return err
	}
	sets, err := eps.GroupIntoSets(disksPerSet)
	if err != nil {
		return err
	}
	format, err := cluster.NewFormat(len(sets), disksPerSet)
	if err != nil {
		return err
	}

	topo := cluster.TopologyFromFormat(format)
	for i, set := range sets {
		for j, ep := range set {
			topo.Pools[0].Sets[i].Disks[j].Endpoint = ep.String()
		}
	}

	var diskRoots []string
	written := 0
	for i, set := range sets {
		for j, ep := range set {
			if !ep.IsLocal() {
				fmt.Printf("skipping remote endpoint %s (format it from its own node)\n", ep)
				diskRoots = append(diskRoots, "")
				continue
			}
			replica := format.WithThis(format.XL.Sets[i][j])
			if err := cluster.SaveFormat(ep.Path, replica); err != nil {
				return err
			}
			diskRoots = append(diskRoots, ep.Path)
			written++
		}
	}
	if written == 0 {
		return cmn.NewInvalidArgError("no local endpoints to format")
	}
	if err := cluster.SaveTopology(diskRoots, topo); err != nil {
		return err
	}
	fmt.Printf("formatted deployment %s: %d sets x %d disks, generation %d\n",
		format.ID, len(sets), disksPerSet, topo.Generation)
	return nil
}
