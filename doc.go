// Package biaslens defines the core types, interfaces, and helpers used across
// the biaslens codebase: job identity hashing, the two classification label
// families (bias and extent), the job record lifecycle, and the contracts that
// storage backends, dispatch strategies, and the queue worker implement.
// Concrete backends live in subpackages such as inmemory, redis, and cassandra,
// while the HTTP surface lives in rest_api and process wiring in cmd.
package biaslens
