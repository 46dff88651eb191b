package main

import "WallabagEnhancer/internal/cli"

func main() {
	cli.Execute()
}
