/*
	Copyright 2024 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/f1-telemetry-dashboard-go/cmd"

func main() {
	cmd.Execute()
}
