// Package main is the entry point for the raidmetrics CLI tool, which imports
// Guild Raid combat logs and computes player, guild and leaderboard metrics.
package main

import "github.com/pable/go-raid-metrics/cmd"

func main() {
	cmd.Execute()
}
