package main

import "github.com/tesh254/wp2md/cmd"

func main() {
	cmd.Execute()
}
