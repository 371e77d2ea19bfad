package main

import "github.com/qobs-build/juce2cmake/cmd"

func main() {
	cmd.Execute()
}
