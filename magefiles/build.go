//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the goglitch binary into bin/.
func (Build) Binary() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/goglitch", "./cmd"), withStream())
	return err
}

// Removes build output.
func (Build) Clean() error {
	return os.RemoveAll("bin")
}
