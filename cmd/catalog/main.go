// Command catalog administers the library catalog database: schema setup,
// genres, books, book instances and staff accounts.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aoideee/locallibrary/internal/config"
)

const version = "1.0.0"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
