package main

import "github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/cli"

func main() {
	cli.Execute()
}
