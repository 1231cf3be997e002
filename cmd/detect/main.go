// Package main is the detect command: batched object detection over an image
// file or directory, with latency benchmarking and optional annotated output.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr, loadONNX, nil))
}
