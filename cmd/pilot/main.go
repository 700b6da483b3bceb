package main

import "github.com/stobo-app/pilot/internal/cmd"

func main() {
	cmd.Execute()
}
