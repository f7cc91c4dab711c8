package main

import "github.com/taskdeck/taskdeck/cmd/taskdeck/cmd"

func main() {
	cmd.Execute()
}
