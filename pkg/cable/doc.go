// Package cable builds and solves the cable-routing model for a wind farm.
//
// # Overview
//
// Turbines must be connected to substations with cables whose capacity is a
// whole number of turbines. Every turbine exports its power over exactly one
// outgoing cable, either directly to a substation or to another turbine
// further along a chain. The goal is the cheapest set of cables, measured in
// total length, whose straight segments never cross.
//
// # Model
//
// [NewModel] turns a [candidates.Set] into a [milp.Problem]. Each candidate
// edge touching a substation yields one [Arc] from the turbine to the
// substation; each turbine–turbine edge yields two opposing arcs. Every arc
// has a binary variable x (the cable is laid) and a continuous variable f
// (the number of turbines whose power flows over it):
//
//   - nobidir: x(u→v) + x(v→u) ≤ 1
//   - feeders_power: the flow entering substations equals the turbine count
//   - single_export: each turbine has exactly one outgoing cable
//   - flow_balance: each turbine sends one more unit than it receives
//   - bind_upper / bind_lower: x ≤ f ≤ capacity·x
//
// The objective is the total weight of the laid cables.
//
// # Crossings
//
// Crossing constraints are never written up front. [CrossingOracle] inspects
// every integer-feasible layout the solver finds and, for each crossing pair
// of cables, adds the lazy cut x(a→b) + x(b→a) + x(c→d) + x(d→c) ≤ 1. In
// reduced mode feeder cables are exempt from this check (see
// [FeederPolicy]); a feeder to the nearest substation can never be crossed by
// an optimal layout, and the exemption keeps the number of cuts small.
//
// # Results
//
// [Model.Solve] returns a [Solution] for every solver outcome. When the
// solver ends without a layout the solution is empty with zero cost, and
// [Solution.Err] turns the status into a coded error so that callers cannot
// mistake it for success.
package cable
