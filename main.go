package main

import "github.com/frahmantamala/hira-inspection/cmd"

func main() {
	cmd.Execute()
}
