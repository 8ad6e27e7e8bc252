// Package controller implements the CDBootstrap reconciliation engine.
//
// Every pass selects one action for the resource, in this precedence:
//
//   - delete: the deletion timestamp is set. Policy, Config, Secret and
//     Workload are deleted in that order, then the finalizer is removed.
//     Nothing is requeued.
//   - create: the finalizer is missing. The finalizer is attached first, then
//     Secret, Config, Policy and Workload are applied and status is set to
//     succeeded. Requeued after 10s.
//   - update: the Workload replica count differs from the spec. Config, Policy
//     and Workload are re-applied and status is set to succeeded. Requeued
//     after 10s.
//   - noop: status is read and the credential pipeline runs. Requeued after 60s.
//
// Any failure aborts the rest of the pass, sets status to not succeeded and
// returns the error, so the work queue retries the key after the error delay.
//
// # Concurrency
//
// The work queue never hands the same key to two workers, so passes for one
// CDBootstrap never interleave. Distinct CDBootstraps are reconciled
// concurrently up to MaxConcurrentReconciles.
//
// # Leader Election
//
// When running multiple replicas for high availability, enable leader election
// via --leader-elect flag to ensure only one controller actively reconciles
// resources at a time.
package controller
