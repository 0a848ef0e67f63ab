package main

import (
	"context"
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "development"

func main() {
	code, err := run(context.Background(), os.Args[1:], defaultEnvironment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
