package matutils

import (
	"strings"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestUniform(t *testing.T) {
	a := Uniform(5, 33, -1, 1, rand.NewSource(2))
	b := Uniform(5, 33, -1, 1, rand.NewSource(2))

	if r, c := a.Dims(); r != 5 || c != 33 {
		t.Fatalf("invalid shape (%v, %v)", r, c)
	}
	if !mat.Equal(a, b) {
		t.Error("same source produced different matrices")
	}
	for _, v := range a.RawMatrix().Data {
		if v < -1 || v > 1 {
			t.Fatalf("value %v outside [-1, 1]", v)
		}
	}
}

func TestFormat(t *testing.T) {
	s := Format(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	if !strings.Contains(s, "1") || !strings.Contains(s, "4") {
		t.Errorf("unexpected format %q", s)
	}
}
