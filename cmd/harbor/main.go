package main

import "github.com/andrescamacho/harbor-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
