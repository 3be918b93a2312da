// Package hitselect reduces the raw hits of one event to the causally
// consistent cluster used to seed vertex candidates.
//
// Stages, in order: IsolationFilter drops hits with no coincident
// neighbour; CausalGraphBuilder relates hits whose time difference is
// compatible with light from a common point and prunes weakly connected
// ones; ClusterFinder keeps the largest mutually related cluster. Selector
// chains the three.
//
// Every stage is built from an immutable config.Constants and
// geometry.Limits and removes hits by mark-then-compact on a hits.Set.
package hitselect
