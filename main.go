package main

import "github.com/Azzedine-prog/TAWSK/internal/cli"

func main() {
	cli.Execute()
}
