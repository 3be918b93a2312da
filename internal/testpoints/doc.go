// Package testpoints produces the vertex candidates handed to the
// likelihood maximiser.
//
// Two sources feed the list: one seed point projected inward from each
// selected hit, and the algebraic solutions of every four-hit combination
// inside the window chosen by package combos. Solved points closer than
// MinPointSeparation2 are averaged together before output.
package testpoints
