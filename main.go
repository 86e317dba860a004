package main

import "github.com/UjjwalAsati/Attendance-System/cmd"

func main() {
	cmd.Execute()
}
