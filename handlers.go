package main

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/o0olele/octree-nav/builder"
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
	"github.com/o0olele/octree-nav/query"
	"github.com/o0olele/octree-nav/replan"
	"github.com/o0olele/octree-nav/voxel"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	log "github.com/sirupsen/logrus"
)

var (
	errNotBuilt        = errors.New("navigation data not built")
	errNoVoxels        = errors.New("navigation data was not built from a voxel scenario")
	errUnknownScenario = errors.New("unknown scenario")
	errUnknownMethod   = errors.New("unknown pathfinding method")
	errMissingEndpoint = errors.New("start and goal need a position or a node id")
)

// serverConfig holds the command line settings.
type serverConfig struct {
	MinSize  float32
	Size     math32.Vector3i
	Scenario string
	Workers  int
}

// navServer owns the navigation state shared by all handlers.
type navServer struct {
	mu      sync.Mutex
	cfg     serverConfig
	logger  log.FieldLogger
	nav     *builder.NavigationData
	voxels  *voxel.VoxelGrid
	grid    *query.Grid
	flow    *query.FlowField
	planner *replan.Planner
}

func newNavServer(cfg serverConfig, logger log.FieldLogger) *navServer {
	return &navServer{cfg: cfg, logger: logger}
}

// 构建请求结构
type BuildRequest struct {
	Points     []math32.Vector3 `json:"points,omitempty"`
	Scenario   string           `json:"scenario,omitempty"`
	MinSize    float32          `json:"min_size,omitempty"`
	BruteForce bool             `json:"brute_force,omitempty"`
}

// 添加障碍物请求结构
type ObstacleRequest struct {
	Position math32.Vector3 `json:"position"`
}

type ObstacleResponse struct {
	Update builder.Update          `json:"update"`
	Stats  builder.NavigationStats `json:"stats"`
}

// 路径查找请求结构
// Endpoints are given by node id or by world position.
type PathfindRequest struct {
	Method        string          `json:"method"`
	Start         *math32.Vector3 `json:"start,omitempty"`
	Goal          *math32.Vector3 `json:"goal,omitempty"`
	StartID       *octree.NodeID  `json:"start_id,omitempty"`
	GoalID        *octree.NodeID  `json:"goal_id,omitempty"`
	MaxIterations int             `json:"max_iterations,omitempty"`
	Smooth        bool            `json:"smooth,omitempty"`
}

// 路径查找响应结构
type PathfindResponse struct {
	Path   []math32.Vector3 `json:"path"`
	Nodes  []octree.NodeID  `json:"nodes"`
	Found  bool             `json:"found"`
	Length int              `json:"length"`
	Cost   float32          `json:"cost"`
	Method string           `json:"method"`

	// Waypoints is the line-of-sight shortened path, set when smoothing
	// was requested.
	Waypoints []math32.Vector3       `json:"waypoints,omitempty"`
	Debug     map[string]interface{} `json:"debug,omitempty"`
}

type GridPathfindRequest struct {
	Start math32.Vector3i `json:"start"`
	Goal  math32.Vector3i `json:"goal"`
}

type GridPathfindResponse struct {
	Path       []math32.Vector3i `json:"path"`
	Found      bool              `json:"found"`
	Length     int               `json:"length"`
	Cost       float32           `json:"cost"`
	Iterations int               `json:"iterations"`
}

type GraphEdge struct {
	A    octree.NodeID `json:"a"`
	B    octree.NodeID `json:"b"`
	Cost float32       `json:"cost"`
}

type GraphResponse struct {
	Nodes []*builder.GraphNode `json:"nodes"`
	Edges []GraphEdge          `json:"edges"`
}

type NavigationInfo struct {
	Stats     builder.NavigationStats  `json:"stats"`
	Memory    builder.BuildMemoryStats `json:"memory"`
	FlowField map[string]interface{}   `json:"flow_field"`
	Replanner map[string]interface{}   `json:"replanner,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}

// errorStatus maps precondition failures to 400 and everything else to 500.
func errorStatus(err error) int {
	for _, target := range []error{
		errNotBuilt, errNoVoxels, errUnknownScenario, errUnknownMethod, errMissingEndpoint,
		octree.ErrInvalidMinSize, octree.ErrOutOfBounds,
		query.ErrNodeNotFound, query.ErrCellNotFound, query.ErrCellOutOfRange,
		replan.ErrNodeNotFound,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// decodeBody decodes an optional JSON body into v.
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// 构建导航数据
func (s *navServer) buildHandler(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	stats, err := s.build(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *navServer) build(ctx context.Context, req BuildRequest) (builder.NavigationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := time.Now()
	points := req.Points
	var grid *voxel.VoxelGrid
	if len(points) == 0 {
		name := req.Scenario
		if name == "" {
			name = s.cfg.Scenario
		}
		if grid = voxel.NewScenario(name, s.cfg.Size); grid == nil {
			return builder.NavigationStats{}, errors.Wrapf(errUnknownScenario, "%q", name)
		}

		var err error
		if points, err = grid.Points(ctx, s.cfg.Workers); err != nil {
			return builder.NavigationStats{}, errors.Wrap(err, "converting voxels")
		}
	}

	minSize := req.MinSize
	if minSize == 0 {
		minSize = s.cfg.MinSize
	}
	b := builder.NewBuilder(&builder.BuildOptions{
		MinNodeSize:     minSize,
		BruteForceEdges: req.BruteForce,
		Logger:          s.logger,
	})
	b.AddPoints(points)
	nd, err := b.Build()
	if err != nil {
		return builder.NavigationStats{}, err
	}

	s.nav = nd
	s.voxels = grid
	s.grid = nil
	s.flow = query.NewFlowField(nd.Graph(), query.WithLogger(s.logger))
	s.planner = nil

	buildLatency.Observe(time.Since(startTime).Seconds())
	instrumentGraph(nd.GetNodeCount(), nd.GetEdgeCount())
	flowFieldExpansions.Set(0)
	return nd.GetStats(), nil
}

// 动态添加障碍物
func (s *navServer) obstacleHandler(w http.ResponseWriter, r *http.Request) {
	var req ObstacleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	resp, err := s.addObstacle(req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *navServer) addObstacle(pos math32.Vector3) (ObstacleResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nav == nil {
		return ObstacleResponse{}, errNotBuilt
	}

	update, err := s.nav.AddPosition(pos)
	if err != nil {
		obstacleInserts.WithLabelValues("rejected").Inc()
		return ObstacleResponse{}, err
	}
	obstacleInserts.WithLabelValues("accepted").Inc()

	for _, id := range update.Removed {
		s.flow.RemoveNode(id)
	}
	if s.voxels != nil && s.voxels.Set(s.voxels.WorldToVoxel(pos), voxel.Voxel(voxel.VoxelSolid)) {
		s.grid = nil
	}
	if s.planner != nil {
		if err := s.planner.Sync(s.nav.Graph(), update); err != nil {
			s.logger.WithError(err).Warn("replanner dropped after sync failure")
			s.planner = nil
		}
	}

	instrumentGraph(s.nav.GetNodeCount(), s.nav.GetEdgeCount())
	return ObstacleResponse{Update: update, Stats: s.nav.GetStats()}, nil
}

// 路径查找
func (s *navServer) findPathHandler(w http.ResponseWriter, r *http.Request) {
	var req PathfindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Method == "" {
		req.Method = "astar"
	}

	startTime := time.Now()
	resp, err := s.findPath(req)
	switch {
	case err == nil:
		instrumentPathfind(req.Method, "found", startTime)
	case query.IsNotFound(err), errors.Is(err, replan.ErrNoPath), errors.Is(err, replan.ErrIterationLimit):
		instrumentPathfind(req.Method, "not_found", startTime)
		resp = &PathfindResponse{Method: req.Method, Debug: map[string]interface{}{"reason": err.Error()}}
	default:
		instrumentPathfind(req.Method, "error", startTime)
		writeError(w, err)
		return
	}

	resp.Found = err == nil
	resp.Length = len(resp.Path)
	s.logger.WithFields(log.Fields{
		"method":  req.Method,
		"found":   resp.Found,
		"length":  resp.Length,
		"elapsed": time.Since(startTime),
	}).Debug("pathfind")
	writeJSON(w, http.StatusOK, resp)
}

func (s *navServer) findPath(req PathfindRequest) (*PathfindResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nav == nil {
		return nil, errNotBuilt
	}
	start, err := s.resolve(req.Start, req.StartID)
	if err != nil {
		return nil, err
	}
	goal, err := s.resolve(req.Goal, req.GoalID)
	if err != nil {
		return nil, err
	}

	opts := []query.Option{query.WithLogger(s.logger), query.WithMaxIterations(req.MaxIterations)}
	var tree *octree.Octree
	if req.Smooth {
		tree = s.nav.Octree()
	}
	switch req.Method {
	case "astar":
		path, err := query.FindPath(s.nav.Graph(), start, goal, opts...)
		if err != nil {
			return nil, err
		}
		resp := graphPathResponse(path, req.Method, tree)
		resp.Debug = map[string]interface{}{"iterations": path.Iterations}
		return resp, nil

	case "flowfield":
		path, err := s.flow.FindPath(start, goal)
		flowFieldExpansions.Set(float64(s.flow.Expansions()))
		if err != nil {
			return nil, err
		}
		resp := graphPathResponse(path, req.Method, tree)
		resp.Debug = map[string]interface{}{
			"root":        s.flow.Root(),
			"expansions":  s.flow.Expansions(),
			"relaxations": s.flow.Relaxations(),
		}
		return resp, nil

	case "dstar":
		return s.replan(start, goal)
	}
	return nil, errors.Wrapf(errUnknownMethod, "%q", req.Method)
}

// resolve picks the node id when given and the closest node to the position
// otherwise.
func (s *navServer) resolve(pos *math32.Vector3, id *octree.NodeID) (octree.NodeID, error) {
	if id != nil {
		return *id, nil
	}
	if pos == nil {
		return octree.NoNode, errMissingEndpoint
	}
	node, ok := s.nav.FindClosestNode(*pos)
	if !ok {
		return octree.NoNode, errors.Wrapf(query.ErrNodeNotFound, "no node near %v", *pos)
	}
	return node, nil
}

// replan reuses the planner while the goal stays the same.
func (s *navServer) replan(start, goal octree.NodeID) (*PathfindResponse, error) {
	reuse := s.planner != nil && s.planner.Goal().ID == goal
	if reuse && s.planner.Start().ID != start {
		reuse = s.planner.MoveStart(start) == nil
	}
	if !reuse {
		planner, err := replan.NewPlanner(replan.FromNavigationGraph(s.nav.Graph()), start, goal, replan.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		planner.Initialize()
		s.planner = planner
	}

	if err := s.planner.ComputeShortestPath(); err != nil {
		return nil, err
	}
	nodes, err := s.planner.GetPath()
	if err != nil {
		return nil, err
	}

	resp := &PathfindResponse{
		Path:   make([]math32.Vector3, len(nodes)),
		Nodes:  make([]octree.NodeID, len(nodes)),
		Cost:   replan.PathCost(nodes),
		Method: "dstar",
		Debug: map[string]interface{}{
			"reused": reuse,
			"steps":  s.planner.Steps(),
			"km":     s.planner.KM(),
		},
	}
	for i, n := range nodes {
		resp.Path[i] = n.Position
		resp.Nodes[i] = n.ID
	}
	return resp, nil
}

// graphPathResponse converts a graph path; a non-nil tree adds waypoints.
func graphPathResponse(path *query.Path, method string, tree *octree.Octree) *PathfindResponse {
	resp := &PathfindResponse{
		Path:   make([]math32.Vector3, len(path.Nodes)),
		Nodes:  path.IDs(),
		Cost:   path.Cost,
		Method: method,
	}
	for i, n := range path.Nodes {
		resp.Path[i] = n.Center
	}
	if tree != nil {
		resp.Waypoints = query.SmoothPath(tree, path)
	}
	return resp
}

// 网格寻路
func (s *navServer) gridPathHandler(w http.ResponseWriter, r *http.Request) {
	var req GridPathfindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	startTime := time.Now()
	path, err := s.findGridPath(req)
	switch {
	case err == nil:
		instrumentPathfind("grid", "found", startTime)
		writeJSON(w, http.StatusOK, GridPathfindResponse{
			Path:       path.Positions(),
			Found:      true,
			Length:     len(path.Cells),
			Cost:       path.Cost,
			Iterations: path.Iterations,
		})
	case query.IsNotFound(err):
		instrumentPathfind("grid", "not_found", startTime)
		writeJSON(w, http.StatusOK, GridPathfindResponse{})
	default:
		instrumentPathfind("grid", "error", startTime)
		writeError(w, err)
	}
}

func (s *navServer) findGridPath(req GridPathfindRequest) (*query.GridPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.voxels == nil {
		return nil, errNoVoxels
	}
	if s.grid == nil {
		grid, err := query.GridFromCells(s.voxels.Size, s.voxels.FreeCells())
		if err != nil {
			return nil, err
		}
		s.grid = grid
	}
	return query.FindGridPath(s.grid, req.Start, req.Goal, query.WithLogger(s.logger))
}

// 获取八叉树结构
func (s *navServer) getOctreeHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nav == nil {
		writeError(w, errNotBuilt)
		return
	}
	data, err := s.nav.Octree().ToJSON()
	if err != nil {
		http.Error(w, "Failed to serialize octree", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// 获取寻路图
func (s *navServer) getGraphHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nav == nil {
		writeError(w, errNotBuilt)
		return
	}
	g := s.nav.Graph()
	resp := GraphResponse{Nodes: g.Nodes(), Edges: make([]GraphEdge, 0, g.EdgeCount())}
	for _, e := range g.Edges() {
		key := e.Key()
		resp.Edges = append(resp.Edges, GraphEdge{A: key.A, B: key.B, Cost: e.Cost})
	}
	writeJSON(w, http.StatusOK, resp)
}

// 获取流场
func (s *navServer) getFlowFieldHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nav == nil {
		writeError(w, errNotBuilt)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"root":  s.flow.Root(),
		"field": s.flow.Field(),
	})
}

func (s *navServer) getNavigationInfoHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nav == nil {
		writeError(w, errNotBuilt)
		return
	}
	info := NavigationInfo{
		Stats:  s.nav.GetStats(),
		Memory: builder.GetMemoryUsage(s.nav),
		FlowField: map[string]interface{}{
			"root":        s.flow.Root(),
			"expansions":  s.flow.Expansions(),
			"relaxations": s.flow.Relaxations(),
		},
	}
	if s.planner != nil {
		info.Replanner = map[string]interface{}{
			"start": s.planner.Start().ID,
			"goal":  s.planner.Goal().ID,
			"km":    s.planner.KM(),
			"steps": s.planner.Steps(),
		}
	}
	writeJSON(w, http.StatusOK, info)
}
