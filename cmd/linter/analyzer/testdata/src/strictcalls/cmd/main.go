package main

import (
	"log"
	"os"
)

func main() {
	log.Fatal("allowed in main")
	os.Exit(0)

	defer func() {
		os.Exit(2)
	}()
}

func init() {
	panic("panic forbidden even in init") // want "panic is forbidden"
	log.Fatal("forbidden in init")        // want "log.Fatal is forbidden outside main function"
	os.Exit(1)                            // want "os.Exit is forbidden outside main function"
}

type server struct{}

func (server) main() {
	os.Exit(3) // want "os.Exit is forbidden outside main function"
}
