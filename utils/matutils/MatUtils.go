// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// Uniform returns a rows x cols matrix with elements drawn from
// U(min, max) using src. Elements are drawn in row-major order.
func Uniform(rows, cols int, min, max float64, src rand.Source) *mat.Dense {
	rng := distuv.Uniform{Min: min, Max: max, Src: src}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Rand()
	}
	return mat.NewDense(rows, cols, data)
}
