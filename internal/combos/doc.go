// Package combos chooses the time window that bounds which four-hit
// combinations the vertex solver evaluates.
//
// The number of combinations reachable within a window w grows roughly with
// w³, so the solver brackets w and refines it with a mix of bisection and a
// cube-root Newton step until the count sits as close as it can get to an
// ideal count derived from the number of selected hits.
package combos
