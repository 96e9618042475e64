//go:build mage

// Package main provides build targets for stock-transfer using Mage.
//
// Usage:
//
//	mage build   Compile stockctl to bin/
//	mage test    Run all tests with the race detector
//	mage cover   Run tests and write coverage.out
//	mage lint    Run golangci-lint
//	mage clean   Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "stockctl"
	binaryDir  = "bin"
	cmdDir     = "./cmd/stockctl"
	coverFile  = "coverage.out"
)

var Default = Build

// Build compiles the stockctl binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs every package test. Redis, MySQL and Kafka tests skip unless
// their services are reachable (REDIS_ADDR, MYSQL_DSN, KAFKA_BROKERS).
func Test() error {
	return sh.RunV(binGo, "test", "-race", "-count=1", "./...")
}

// Cover runs the tests with a coverage profile.
func Cover() error {
	mg.Deps(Test)
	return sh.RunV(binGo, "test", "-coverprofile="+coverFile, "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.Rm(coverFile)
}
