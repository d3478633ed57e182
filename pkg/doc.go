// Package pkg provides the core libraries for cablenet, a wind-farm cable
// layout optimizer.
//
// # Overview
//
// Cablenet connects every turbine of a wind farm to a substation with
// capacity-limited cables at minimum total length, so that no two cables
// cross. The pkg directory is organized into three areas:
//
//  1. Domain logic (geometry, candidate graphs, the cable model, the solver)
//  2. Orchestration (instances, the pipeline, run history, rendering)
//  3. Infrastructure (caching, configuration, errors, hooks, the HTTP API)
//
// # Architecture
//
// The typical data flow through cablenet:
//
//	Instance JSON (turbines + substations)
//	         ↓
//	    [candidates] package (Delaunay edges + diagonals, or the full graph)
//	         ↓
//	    [cable] package (flow model, crossing oracle)
//	         ↓
//	    [milp/bnb] package (branch-and-bound with lazy crossing cuts)
//	         ↓
//	    Solution JSON, SVG/PNG/DOT drawing
//
// # Main Packages
//
// ## Domain Logic
//
//   - [geom]: Orientation and segment-crossing predicates
//   - [mesh]: Delaunay triangulation with triangle adjacency
//   - [candidates]: Reduced and full candidate edge sets
//   - [cable]: The capacitated flow model and its crossing oracle
//   - [milp]: Problem, Solver and lazy-constraint types
//   - [milp/bnb]: Pure-Go branch-and-bound over LP relaxations
//
// ## Orchestration
//
//   - [instance]: Instance files and the random instance generator
//   - [pipeline]: candidates → solve → render with caching
//   - [runs]: Run history in files, memory or MongoDB
//   - [render]: Graphviz drawings of layouts
//   - [io]: Solution import and export
//
// ## Infrastructure
//
//   - [cache]: File and Redis caches with content-addressed keys
//   - [config]: TOML configuration
//   - [errors]: Error codes shared by the CLI and the API
//   - [observability]: Hooks for solver, pipeline and HTTP events
//   - [api]: The HTTP server
//   - [buildinfo]: Version information
//
// # Common Workflows
//
// Solve an instance and draw the result:
//
//	inst, _ := instance.Load("instance_20_s1.json")
//	in, _ := pipeline.NewInput(inst)
//	runner := pipeline.NewRunner(nil, nil, nil, logger)
//	result, _ := runner.Execute(ctx, in, pipeline.Options{
//	    Capacity: 4,
//	    Formats:  []string{"svg"},
//	})
//	fmt.Println(result.Solution.Summary())
//
// Check a layout for crossings:
//
//	n := geom.CountCrossings(sol.Edges(), in.Coords)
//
// # Testing
//
// Every package has unit tests. The MongoDB and Redis tests connect to the
// servers named by CABLENET_MONGO_URI and CABLENET_REDIS_ADDR and
// are skipped when those are unset.
package pkg
