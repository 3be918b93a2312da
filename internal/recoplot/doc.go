// Package recoplot renders reconstructed events for inspection: static PNG
// projections through gonum/plot and an interactive HTML report through
// go-echarts.
package recoplot
