// Command voogpager renders, browses, serves and exports paginated Voog
// listings (blog articles, catalogue elements, article comments).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	rootCmd := newRootCommand(loadConfig())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
