//go:build mage

// Copyright (c) 2026 The dayplan Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for dayplan using Mage.
//
// Usage:
//
//	mage build             Compile the dayplan binary to bin/
//	mage test:all          Run all tests (unit + integration)
//	mage test:unit         Run only unit tests (exclude tests/)
//	mage test:integration  Run only the HTTP integration tests
//	mage test:cover        Run all tests with a coverage profile
//	mage lint              Run golangci-lint
//	mage serve             Build and serve with the local config
//	mage clean             Remove build artifacts
//	mage install           Install dayplan to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "dayplan"
	binaryDir  = "bin"
	cmdDir     = "./cmd/dayplan"
	versionVar = "github.com/mesh-intelligence/dayplan/internal/cli.Version"
)

// ldflags stamps the version from DAYPLAN_VERSION or the nearest git tag.
func ldflags() string {
	version := os.Getenv("DAYPLAN_VERSION")
	if version == "" {
		out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
		if err != nil || out == "" {
			return ""
		}
		version = out
	}
	return "-X " + versionVar + "=" + version
}

// Build compiles the dayplan binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if flags := ldflags(); flags != "" {
		args = append(args, "-ldflags", flags)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Serve builds the binary and runs the HTTP server. Arguments after the
// target are passed through, for example "mage serve --listen :9000".
func Serve() error {
	mg.Deps(Build)
	args := append([]string{"serve"}, targetArgs...)
	return sh.RunV(filepath.Join(binaryDir, binaryName), args...)
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
