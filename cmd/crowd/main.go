package main

import "github.com/selwyth/diverse-crowd/internal/cli"

func main() {
	cli.Execute()
}
