package main

import "example.com/linked/greet"

var version = "dev"

func main() {
	println(greet.Greet(), version)
}
