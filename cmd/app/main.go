package main

import "trade-docs/internal/adapters/cli"

func main() {
	cli.Execute()
}
