package main

import "github.com/vanducng/emojiwatch/cmd"

func main() {
	cmd.Execute()
}
