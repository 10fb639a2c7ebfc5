package main

import "github.com/claude/healthbridge/internal/cli"

func main() {
	cli.Execute()
}
