package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/integrii/flaggy"
)

func main() {
	var (
		name    string
		steps   = 200
		seed    string
		noColor bool
	)
	flaggy.SetName("demo")
	flaggy.SetDescription("Runs the built-in scenarios: " + strings.Join(scenarioNames(), ", "))
	flaggy.AddPositionalValue(&name, "scenario", 1, false, "Scenario to run; all of them when omitted")
	flaggy.Int(&steps, "s", "steps", "Number of Monte Carlo steps per scenario")
	flaggy.String(&seed, "", "seed", "Random seed")
	flaggy.Bool(&noColor, "", "no-color", "Disable coloured output")
	flaggy.Parse()

	var seedValue uint64
	if seed != "" {
		v, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			flaggy.ShowHelpAndExit(fmt.Sprintf("invalid seed %q", seed))
		}
		seedValue = v
	}
	if err := runDemo(os.Stdout, name, seedValue, steps, !noColor); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runDemo(out io.Writer, name string, seed uint64, steps int, colors bool) error {
	selected := scenarios
	if name != "" {
		s, ok := findScenario(name)
		if !ok {
			return fmt.Errorf("unknown scenario %q (available: %s)", name, strings.Join(scenarioNames(), ", "))
		}
		selected = []Scenario{s}
	}
	for _, s := range selected {
		if _, err := s.Run(out, seed, steps, colors); err != nil {
			return err
		}
	}
	return nil
}

func scenarioNames() []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	return names
}
