package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	methodLabel = "method"
	resultLabel = "result"
)

var (
	pathfindRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_nav_pathfind_requests",
		Help: "The number of path queries by method and result.",
	}, []string{
		methodLabel,
		resultLabel,
	})

	pathfindLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "octree_nav_pathfind_latency",
		Help: "The time to answer a path query.",
	}, []string{
		methodLabel,
	})

	obstacleInserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_nav_obstacle_inserts",
		Help: "The number of dynamic obstacle insertions by result.",
	}, []string{
		resultLabel,
	})

	buildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "octree_nav_build_latency",
		Help: "The time to build the octree and its navigation graph.",
	})

	graphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "octree_nav_graph_nodes",
		Help: "The number of nodes in the navigation graph.",
	})

	graphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "octree_nav_graph_edges",
		Help: "The number of edges in the navigation graph.",
	})

	flowFieldExpansions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "octree_nav_flowfield_expansions",
		Help: "The number of nodes closed by the flow field cache.",
	})
)

func instrumentPathfind(method, result string, start time.Time) {
	pathfindRequests.With(prometheus.Labels{
		methodLabel: method,
		resultLabel: result,
	}).Inc()
	pathfindLatency.With(prometheus.Labels{
		methodLabel: method,
	}).Observe(time.Since(start).Seconds())
}

func instrumentGraph(nodes, edges int) {
	graphNodes.Set(float64(nodes))
	graphEdges.Set(float64(edges))
}
