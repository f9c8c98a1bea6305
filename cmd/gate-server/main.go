package main

import (
	"context"
	"log"
	"os"

	"github.com/ethosgate/reputation-gate/internal/app/bootstrap"
)

func main() {
	configPath := os.Getenv("GATE_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/default.yaml"
	}

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, configPath)
	if err != nil {
		log.Fatalf("bootstrap gate runtime: %v", err)
	}
	if err := runtime.Run(ctx); err != nil {
		log.Fatalf("run gate: %v", err)
	}
}
