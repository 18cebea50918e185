package main

import "github.com/sohosai/hyperdashi-server/cmd"

func main() {
	cmd.Execute()
}
