package main

import "github.com/splitpierre/yalapm/cmd"

func main() {
	cmd.Execute()
}
