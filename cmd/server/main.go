package main

import "movie-night-backend/cmd"

func main() {
	cmd.Run()
}
