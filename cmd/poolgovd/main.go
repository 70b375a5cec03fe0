package main

import "github.com/LeJamon/poolgovd/internal/cli"

func main() {
	cli.Execute()
}
