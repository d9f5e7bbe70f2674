package main

import "github.com/overtake/league-capture/cmd"

func main() {
	cmd.Execute()
}
