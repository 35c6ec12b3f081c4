package main

import "github.com/ValentinKolb/kvperf/cmd"

func main() {
	cmd.Execute()
}
