package main

import "github.com/hurou927/xampp-tools/cmd"

func main() {
	cmd.Execute()
}
