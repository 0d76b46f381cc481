package main

import (
	"log"
	"os"
)

func main() {
	collect()
	os.Exit(0)
}

func collect() {
	panic("buffer too small") // want "found usage of panic"

	log.Fatal("no registry") // want "found usage of log.Fatal outside of main function"

	os.Exit(1) // want "found usage of os.Exit outside of main function"
}

type server struct{}

func (server) main() {
	os.Exit(2) // want "found usage of os.Exit outside of main function"
}
