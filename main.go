package main

import "orgunit-sync/cmd"

func main() {
	cmd.Execute()
}
