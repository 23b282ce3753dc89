package main

import "github.com/latsic/idbridge/cmd"

func main() {
	cmd.Execute()
}
