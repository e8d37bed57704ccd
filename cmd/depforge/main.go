package main

import (
	"github.com/tealdb/depforge/cmd/depforge/internal"
)

func main() {
	internal.Execute()
}
