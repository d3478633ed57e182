package cable_test

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/milp/bnb"
)

func Example() {
	// A substation at the origin and three turbines on a 10×10 square.
	coords := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	set, err := candidates.Build(coords, 1, candidates.Options{Mode: candidates.ModeFull})
	if err != nil {
		panic(err)
	}
	// With capacity 1 every turbine needs its own feeder.
	model, err := cable.NewModel(coords, set, cable.Options{Capacity: 1})
	if err != nil {
		panic(err)
	}
	sol, err := model.Solve(context.Background(), bnb.New(nil), milp.Params{})
	if err != nil {
		panic(err)
	}

	fmt.Println(sol.Status)
	fmt.Printf("cost %.3f\n", sol.Cost)
	for _, a := range sol.Arcs {
		fmt.Printf("%d -> %d\n", a.From, a.To)
	}
	// Output:
	// optimal
	// cost 34.142
	// 1 -> 0
	// 2 -> 0
	// 3 -> 0
}
