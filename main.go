package main

import "labelme/cmd"

func main() {
	cmd.Execute()
}
