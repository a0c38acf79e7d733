package main

import "github.com/funvibe/eggc/pkg/cli"

func main() {
	cli.Run()
}
