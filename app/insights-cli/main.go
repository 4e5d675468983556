package main

import "insuranceInsights/app/insights-cli/cmd"

func main() {
	cmd.Execute()
}
