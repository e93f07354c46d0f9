package main

import "bafb/internal/cli"

func main() {
	cli.Execute()
}
