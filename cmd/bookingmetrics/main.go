package main

import "booking-metrics/internal/cli"

func main() {
	cli.Execute()
}
