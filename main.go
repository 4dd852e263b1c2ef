package main

import "podracer/cmd"

func main() {
	cmd.Execute()
}
