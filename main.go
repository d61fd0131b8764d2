package main

import "github.com/attendly/faceid/cmd"

func main() {
	cmd.Execute()
}
