//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs goglitch on the image named by the IMAGE environment variable.
func (Run) App() error {
	args := []string{"run", "./cmd"}
	if img := getEnv("IMAGE"); img != "" {
		args = append(args, img)
	}
	fmt.Println("Run goglitch...")
	_, err := executeCmd("go", withArgs(args...), withStream())
	return err
}
