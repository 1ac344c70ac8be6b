package main

import "github.com/spideyz0r/corvus/pkg/cli"

const version = "0.3.0"

func main() {
	cli.Execute(version)
}
