// Package scan provides the parameter-space exploration engine for luftscan.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - prior.go: PriorSpec, the per-parameter sampling distribution
//   - sampler.go: independent draws and Latin Hypercube sampling
//   - evaluator.go: one objective call, failures isolated into the row
//   - orchestrator.go: worker pool with index-preserving aggregation
//
// # Architecture
//
// The scan package defines the data model and the Objective contract;
// everything else lives in sub-packages:
//   - scan/analysis/: correlation, sensitivity, best-fit search, summaries
//   - scan/export/: flat CSV result sink with a YAML header
//   - scan/store/: SQLite persistence of completed scans
//   - scan/luft/: the LUFT lattice-collapse objectives
//
// Objectives register themselves via init() with RegisterObjective and are
// looked up by name with NewObjective.
//
// # Determinism
//
// All randomness flows from a SimulationKey through PartitionedRNG. Latin
// Hypercube sampling uses the SubsystemSampler stream; parallel independent
// sampling gives worker N the SubsystemWorker(N) stream.
package scan
