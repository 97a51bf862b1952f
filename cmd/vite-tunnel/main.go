package main

import "github.com/waste3d/vite-tunnel/internal/interfaces/cli"

func main() {
	cli.Execute()
}
