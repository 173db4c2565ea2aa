package main

import "github.com/oddsradar/surebet/cmd"

func main() {
	cmd.Execute()
}
