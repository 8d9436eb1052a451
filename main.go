package main

import "github.com/kozaktomas/face-finder/cmd"

func main() {
	cmd.Execute()
}
