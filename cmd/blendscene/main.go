// blendscene resolves the object graph of a record dump into a scene tree.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/blendscene/internal/logger"
)

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
