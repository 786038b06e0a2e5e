package main

import "github.com/dorian305/3D-Model-Viewer/cmd"

func main() {
	cmd.Execute()
}
