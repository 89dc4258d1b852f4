package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/riplabs/annotdb-backend/internal/app"
)

// Rebuilds the current-annotation projection from the full annotation
// history. Run after manual database surgery or suspected drift.
func main() {
	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Services.Annotation.RecalcCurrent(context.Background()); err != nil {
		fmt.Printf("recalc current annotations: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("current annotations recalculated")
}
