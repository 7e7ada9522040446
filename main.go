package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/o0olele/octree-nav/math32"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

func main() {
	addr := flag.String("addr", ":8080", "The listening address.")
	pprofAddr := flag.String("pprof-addr", "", "The pprof listening address. Disabled when empty.")
	minSize := flag.Float64("min-size", 1, "The side length at which octree leaves stop subdividing.")
	size := flag.Int("size", 20, "The side of the voxel volume used by the empty scenario.")
	scenario := flag.String("scenario", "low", "The voxel scenario built at startup: low, empty or none.")
	workers := flag.Int("workers", 0, "The goroutines converting voxels to points. 0 uses GOMAXPROCS.")
	logLevel := flag.String("log-level", "info", "The log level: debug, info, warn or error.")
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.WithError(err).Fatal("invalid log level")
	}
	log.SetLevel(level)

	cfg := serverConfig{
		MinSize:  float32(*minSize),
		Size:     math32.Vector3i{X: int32(*size), Y: int32(*size), Z: int32(*size)},
		Scenario: *scenario,
		Workers:  *workers,
	}
	buildAtStartup := cfg.Scenario != "none"
	if !buildAtStartup {
		cfg.Scenario = "low"
	}

	srv := newNavServer(cfg, log.StandardLogger())
	if buildAtStartup {
		stats, err := srv.build(context.Background(), BuildRequest{})
		if err != nil {
			log.WithError(err).Fatal("building startup scenario failed")
		}
		log.WithFields(log.Fields{
			"scenario": cfg.Scenario,
			"nodes":    stats.NodeCount,
			"edges":    stats.EdgeCount,
		}).Info("startup scenario built")
	}
	serve(*addr, *pprofAddr, srv)
}

func serve(addr, pprofAddr string, srv *navServer) {
	if pprofAddr != "" {
		go func() {
			log.Info(http.ListenAndServe(pprofAddr, nil))
		}()
	}

	log.WithField("addr", addr).Info("server starting")
	log.Fatal(http.ListenAndServe(addr, srv.routes()))
}

func (s *navServer) routes() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/build", s.buildHandler).Methods("POST")
	api.HandleFunc("/obstacle", s.obstacleHandler).Methods("POST")
	api.HandleFunc("/pathfind", s.findPathHandler).Methods("POST")
	api.HandleFunc("/grid/pathfind", s.gridPathHandler).Methods("POST")
	api.HandleFunc("/octree", s.getOctreeHandler).Methods("GET")
	api.HandleFunc("/graph", s.getGraphHandler).Methods("GET")
	api.HandleFunc("/flowfield", s.getFlowFieldHandler).Methods("GET")
	api.HandleFunc("/navigation/info", s.getNavigationInfoHandler).Methods("GET")

	r.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}
