package main

import "fanline/cmd/client/cmd"

func main() {
	cmd.Execute()
}
