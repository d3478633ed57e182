package candidates_test

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/candidates"
)

func ExampleBuild() {
	// One substation followed by three turbines.
	coords := []r2.Vec{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 10},
		{X: 0, Y: 10},
	}

	set, err := candidates.Build(coords, 1, candidates.Options{Mode: candidates.ModeFull})
	if err != nil {
		panic(err)
	}
	for _, e := range set.Edges {
		fmt.Printf("%d-%d %.2f\n", e.U, e.V, e.Weight)
	}
	// Output:
	// 0-1 10.00
	// 0-2 14.14
	// 0-3 10.00
	// 1-2 10.00
	// 1-3 14.14
	// 2-3 10.00
}
