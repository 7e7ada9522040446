package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/o0olele/octree-nav/builder"
	"github.com/o0olele/octree-nav/math32"
	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	srv := newNavServer(serverConfig{
		MinSize:  1,
		Size:     math32.Vector3i{X: 8, Y: 8, Z: 8},
		Scenario: "low",
		Workers:  2,
	}, logger)
	return srv.routes()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHandlersBeforeBuild(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/api/graph", "/api/octree", "/api/navigation/info", "/api/flowfield"} {
		require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, path, nil).Code, path)
	}
	rec := do(t, h, http.MethodPost, "/api/pathfind", PathfindRequest{Start: &math32.Vector3{}, Goal: &math32.Vector3{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/grid/pathfind", GridPathfindRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/build", BuildRequest{Scenario: "castle"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuildAndQuery(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/build", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats builder.NavigationStats
	decode(t, rec, &stats)
	require.Greater(t, stats.NodeCount, 0)
	require.Greater(t, stats.EdgeCount, 0)

	start, goal := math32.Vector3{}, math32.Splat(20)
	var astar PathfindResponse
	t.Run("astar", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/pathfind", PathfindRequest{Start: &start, Goal: &goal})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &astar)
		require.True(t, astar.Found)
		require.Equal(t, "astar", astar.Method)
		require.Equal(t, len(astar.Nodes), astar.Length)
		require.Len(t, astar.Path, astar.Length)
		require.Empty(t, astar.Waypoints)
	})

	t.Run("smoothed", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/pathfind", PathfindRequest{Start: &start, Goal: &goal, Smooth: true})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp PathfindResponse
		decode(t, rec, &resp)
		require.NotEmpty(t, resp.Waypoints)
		require.LessOrEqual(t, len(resp.Waypoints), resp.Length)
		require.Equal(t, resp.Path[0], resp.Waypoints[0])
		require.Equal(t, resp.Path[len(resp.Path)-1], resp.Waypoints[len(resp.Waypoints)-1])
	})

	for _, method := range []string{"flowfield", "dstar"} {
		t.Run(method, func(t *testing.T) {
			req := PathfindRequest{Method: method, StartID: &astar.Nodes[0], GoalID: &astar.Nodes[len(astar.Nodes)-1]}
			rec := do(t, h, http.MethodPost, "/api/pathfind", req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp PathfindResponse
			decode(t, rec, &resp)
			require.True(t, resp.Found)
			require.InDelta(t, astar.Cost, resp.Cost, 1e-3)
			require.Equal(t, astar.Nodes[0], resp.Nodes[0])
		})
	}

	t.Run("dstar reuses the planner", func(t *testing.T) {
		req := PathfindRequest{Method: "dstar", StartID: &astar.Nodes[1], GoalID: &astar.Nodes[len(astar.Nodes)-1]}
		rec := do(t, h, http.MethodPost, "/api/pathfind", req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp PathfindResponse
		decode(t, rec, &resp)
		require.True(t, resp.Found)
		require.Equal(t, true, resp.Debug["reused"])
	})

	t.Run("bad requests", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/pathfind", PathfindRequest{Method: "teleport", Start: &start, Goal: &goal})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		rec = do(t, h, http.MethodPost, "/api/pathfind", PathfindRequest{Start: &start})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		missing := astar.Nodes[0] + 1<<20
		rec = do(t, h, http.MethodPost, "/api/pathfind", PathfindRequest{StartID: &missing, Goal: &goal})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("obstacle", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/obstacle", ObstacleRequest{Position: astar.Path[len(astar.Path)/2]})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp ObstacleResponse
		decode(t, rec, &resp)
		require.False(t, resp.Update.Empty())

		rec = do(t, h, http.MethodPost, "/api/pathfind", PathfindRequest{Method: "dstar", Start: &start, Goal: &goal})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, h, http.MethodPost, "/api/obstacle", ObstacleRequest{Position: math32.Splat(1000)})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("grid", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/grid/pathfind", GridPathfindRequest{Goal: math32.Vector3i{X: 19, Y: 19, Z: 19}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp GridPathfindResponse
		decode(t, rec, &resp)
		require.True(t, resp.Found)
		require.Equal(t, math32.Vector3i{}, resp.Path[0])
	})

	t.Run("read endpoints", func(t *testing.T) {
		var graph GraphResponse
		decode(t, do(t, h, http.MethodGet, "/api/graph", nil), &graph)
		require.NotEmpty(t, graph.Nodes)
		require.NotEmpty(t, graph.Edges)

		var info map[string]interface{}
		decode(t, do(t, h, http.MethodGet, "/api/navigation/info", nil), &info)
		require.Contains(t, info, "stats")
		require.Contains(t, info, "replanner")

		rec := do(t, h, http.MethodGet, "/api/octree", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, json.Valid(rec.Body.Bytes()))

		rec = do(t, h, http.MethodGet, "/api/flowfield", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, h, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "octree_nav_pathfind_requests")
	})
}

func TestBuildFromPoints(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/build", BuildRequest{
		Points:     []math32.Vector3{{X: 0}, {X: 4}, {X: 4, Y: 4, Z: 4}},
		BruteForce: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// point builds carry no voxel grid
	rec = do(t, h, http.MethodPost, "/api/grid/pathfind", GridPathfindRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/build", BuildRequest{Points: []math32.Vector3{{}}, MinSize: -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
