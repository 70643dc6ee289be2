package main

import "asmexplain/cmd"

func main() {
	cmd.Execute()
}
