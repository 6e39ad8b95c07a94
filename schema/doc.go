// Package schema narrows numeric columns to the smallest type that holds their values.
//
// Inference is an explicit two-step process. An Inferrer observes batches from a scan
// and produces an InferredSchema; Cast then converts each batch of a second read to the
// inferred types. A schema built from a sample is marked non-exhaustive, and casting a
// value outside the sampled range fails with errs.ErrSchemaCast instead of clamping.
//
// Only Float64 columns are narrowed. Character and temporal columns keep their type.
package schema
