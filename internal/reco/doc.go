// Package reco runs the vertex seeding pipeline for whole events.
//
// A Reconstructor chains hit selection, the combination window search and
// candidate generation for one detector configuration. Batch fans events
// out over a bounded worker pool and hands each result to an optional Sink.
// Neither owns domain logic; both delegate to the stage packages.
package reco
