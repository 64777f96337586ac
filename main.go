package main

import "github.com/tsegaye/travel-listings/cmd"

func main() {
	cmd.Execute()
}
