package main

import "github.com/bcamacho/RightsContract/cmd"

func main() {
	cmd.Execute()
}
