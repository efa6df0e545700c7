//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const demoDir = "tmp/demo"

// Demo seeds a scratch SQLite database with personal data, depersonalizes it
// and shows the report.
func Demo() error {
	mg.Deps(Build)
	if err := os.RemoveAll(demoDir); err != nil {
		return err
	}
	bin := filepath.Join(binaryDir, binaryName)
	common := []string{"--config-dir", filepath.Join(demoDir, "config"), "--state-dir", filepath.Join(demoDir, "state")}
	steps := [][]string{
		{"init", "--dsn", filepath.Join(demoDir, "demo.db")},
		{"seed", "--rows", "500"},
		{"check"},
		{"run", "--workers", "2", "--batch-size", "100"},
	}
	for _, step := range steps {
		if err := sh.RunV(bin, append(step, common...)...); err != nil {
			return err
		}
	}
	return nil
}
