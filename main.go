package main

import "github.com/khrees2412/mockly/cmd"

func main() {
	cmd.Execute()
}
