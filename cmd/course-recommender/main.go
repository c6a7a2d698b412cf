// Package main is the entrypoint for course-recommender: the web UI, the terminal UI and the backend API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRoot().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "course-recommender: %v\n", err)
		os.Exit(1)
	}
}
