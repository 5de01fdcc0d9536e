package main

import "github.com/nbennett1978/vocab-trainer/cmd"

func main() {
	cmd.Execute()
}
