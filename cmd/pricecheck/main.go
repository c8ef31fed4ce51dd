// pricecheck evaluates one runner from the command line:
//
//	pricecheck -runners 10 -lay 3.0 -place 1.62
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Usmankhan866/BetfairBot/internal/pricing"
)

func main() {
	runners := flag.Int("runners", 0, "field size")
	lay := flag.Float64("lay", 0, "win market lay price")
	place := flag.Float64("place", 0, "place market back price")
	flag.Parse()

	d, err := pricing.Evaluate(*runners, *lay, *place)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if !d.Qualifies {
		fmt.Printf("%d runners: race does not qualify (need 8-14)\n", *runners)
		return
	}

	fmt.Printf("divisor:    %d\n", d.Divisor)
	fmt.Printf("fair place: %.2f\n", d.FairPlace)
	fmt.Printf("min place:  %.2f\n", d.MinPlace)
	if d.Favorable {
		fmt.Printf("BET: %.2f available, edge %.2f\n", *place, d.Edge)
	} else {
		fmt.Printf("NO BET: %.2f available, need %.2f\n", *place, d.MinPlace)
	}
}
