package main

import "photobox/cmd/photobox/cli"

func main() {
	cli.Execute()
}
