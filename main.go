package main

import "github.com/cropwise/agroquery/cmd"

func main() {
	cmd.Execute()
}
