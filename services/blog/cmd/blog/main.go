package main

import "github.com/example/blog-platform/services/blog/internal/cli"

func main() {
	cli.Execute()
}
