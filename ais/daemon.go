package ais

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stratastore/strata/cluster"
	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cmn/jsp"
	"github.com/stratastore/strata/ec"
	"github.com/stratastore/strata/fs"
	"github.com/stratastore/strata/placement"
	"github.com/stratastore/strata/registry"
	"github.com/stratastore/strata/stats"
	"github.com/stratastore/strata/transport"
)

const shutdownGrace = 10 * time.Second

// Run starts the storage node: load config, validate the on-disk cluster
// identity, load the topology with quorum, build the placement ring, and
// serve S3 + storage RPC + admin + health + metrics until signalled.
func Run(configPath string) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cmn.GCO.Put(config)
	initLogging(&config.Log)
	cmn.InitShortID(uint64(time.Now().UnixNano()))
	stats.Register()

	local, err := fs.NewLocalDisks(config.FSPaths.Paths, config.FSPaths.DisksPerSet)
	if err != nil {
		return err
	}

	plc, err := initCluster(local)
	if err != nil {
		return err
	}

	var reg ec.Registry
	if config.Reg.Enabled {
		r, err := registry.Open(config.Reg.Path)
		if err != nil {
			// Optional collaborator: never fatal.
			log.Warn().Err(err).Msg("object registry unavailable, continuing without")
		} else {
			reg = r
			defer r.Close()
		}
	}

	coord := ec.NewCoordinator(plc, local, transport.NewClient(), reg)

	mux := http.NewServeMux()
	transport.NewServer(local).RegisterHandlers(mux)
	registerAdminHandlers(mux)
	mux.HandleFunc(cmn.URLPathHealth, handleHealth)
	mux.Handle(cmn.URLPathMetrics, promhttp.Handler())
	mux.Handle("/", newObjHandler(coord))

	srv := &http.Server{
		Addr:    config.Net.Hostname + ":" + strconv.Itoa(config.Net.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("run_id", cmn.GenShortID()).Msg("storage node listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
		cluster.CleanupManager()
		return nil
	case err := <-errCh:
		return cmn.NewNetworkError(err, "http server")
	}
}

func loadConfig(path string) (*cmn.Config, error) {
	config := cmn.DefaultConfig()
	if path != "" {
		if err := jsp.Load(path, config); err != nil {
			return nil, cmn.WithContext(err, "load config %s", path)
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func initLogging(conf *cmn.LogConf) {
	level, err := zerolog.ParseLevel(conf.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !conf.JSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// initCluster validates the format replicas and loads the topology; an
// unformatted node degrades to single-disk mode (nil placement).
func initCluster(local *fs.LocalDisks) (*placement.Placement, error) {
	paths := local.AllPaths()
	if len(paths) == 0 {
		log.Warn().Msg("no disks configured, running in single-disk mode")
		return nil, nil
	}
	formats := cluster.LoadFormats(paths)
	if err := cluster.ValidateReplicas(formats); err != nil {
		if cmn.IsKind(err, cmn.KindQuorum) {
			stats.QuorumFailures.Inc()
		}
		log.Warn().Err(err).Msg("cluster not formatted, running in single-disk mode")
		return nil, nil
	}
	for _, f := range formats {
		if f != nil {
			cluster.FormatCache.Set(f)
			break
		}
	}

	if err := cluster.InitManager(paths); err != nil {
		return nil, err
	}
	if err := cluster.LoadTopo(); err != nil {
		return nil, err
	}
	topo, err := cluster.GetTopo()
	if err != nil {
		return nil, err
	}
	plc, err := placement.New(topo, local)
	if err != nil {
		return nil, err
	}
	stats.TopologyGeneration.Set(float64(topo.Generation))
	err = cluster.SetTopoCallback(func(t *cluster.Topology) {
		stats.TopologyGeneration.Set(float64(t.Generation))
		if err := plc.Rebuild(t); err != nil {
			log.Error().Err(err).Msg("placement rebuild failed")
		}
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("deployment", topo.DeploymentID).
		Int64("generation", topo.Generation).
		Int("active_sets", topo.CountActiveSets()).
		Msg("cluster loaded")
	return plc, nil
}
