package client_test

import (
	"context"
	"fmt"

	"github.com/daniacca/popsim/pkg/client"
)

func ExampleWorldBuilder() {
	world := client.NewWorld("lotka-volterra").
		Size(256, 256).
		Species("A", "Predator", nil).
		Species("B", "Prey", nil).
		Density("A", 0.2).
		Density("B", 0.2).
		Hop("A", 0.5).
		Hop("B", 0.5).
		Reaction(client.Death("A").Rate(0.1)).
		Reaction(client.PredationBirth("A", "B").Rate(0.5)).
		Reaction(client.Birth("B").Rate(0.3)).
		CarryingCapacity(1).
		Seed(42)

	cfg := world.Build()
	fmt.Printf("World: %s\n", cfg.Name)
	fmt.Printf("Species: %d\n", len(cfg.Species))
	fmt.Printf("Predator rules: %d\n", len(cfg.Reactions["A"]))

	// Example: Apply to server (commented out for test)
	// ctx := context.Background()
	// err := client.ApplyWorld(ctx, "http://localhost:8080", "lv", world)
	// if err != nil {
	// 	log.Fatal(err)
	// }

	// Output:
	// World: lotka-volterra
	// Species: 2
	// Predator rules: 2
}

func ExampleApplyWorld() {
	ctx := context.Background()
	world := client.NewWorld("rock-paper-scissors").
		Size(128, 128).
		Reaction(client.PredationBirth("rock", "scissors").Rate(1)).
		Reaction(client.PredationBirth("scissors", "paper").Rate(1)).
		Reaction(client.PredationBirth("paper", "rock").Rate(1)).
		CarryingCapacity(1)

	// This would send the config to the server
	// Uncomment to actually send:
	// err := client.ApplyWorld(ctx, "http://localhost:8080", "rps", world)
	// if err != nil {
	// 	log.Fatal(err)
	// }

	_ = ctx
	_ = world
}

func ExampleWorldBuilder_Notify() {
	world := client.NewWorld("lotka-volterra").
		Size(64, 64).
		Reaction(client.Birth("B").Rate(0.3)).
		Notify(client.NewNotification().
			Enabled(true).
			Notifiers("webhook-1", "websocket-1").
			Every(100),
		)

	_ = world
}
