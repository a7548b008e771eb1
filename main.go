package main

import "github.com/andresmejia3/facemask/cmd"

func main() {
	cmd.Execute()
}
