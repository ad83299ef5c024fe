package main

import "github.com/forPelevin/clipcap/internal/cli"

func main() {
	cli.Main()
}
