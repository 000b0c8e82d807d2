// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package script loads YAML files describing a sequence of commands to run.
//
// A script file looks like:
//
//	steps:
//	  - name: build
//	    command: go build ./...
//	  - name: greet
//	    command: echo "hello $NAME"
//	    shell: true
//	    env:
//	      NAME: world
package script

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

var (
	// ErrReadScript is returned when the script file cannot be read.
	ErrReadScript = errors.New("failed to read script file")
	// ErrParseScript is returned when the script file is not valid YAML.
	ErrParseScript = errors.New("failed to parse script file")
	// ErrNoSteps is returned when the script contains no steps.
	ErrNoSteps = errors.New("script contains no steps")
	// ErrEmptyCommand is returned when a step has no command.
	ErrEmptyCommand = errors.New("step has an empty command")
)

// FsFactory is a function that returns an afero filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Step is one command in a script.
type Step struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Shell   bool              `yaml:"shell"`
	Cwd     string            `yaml:"cwd"`
	Env     map[string]string `yaml:"env"`
}

// Script is an ordered list of steps, run first to last.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadScript, err)
	}

	var s Script

	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrParseScript, err)
	}

	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSteps, path)
	}

	for i, step := range s.Steps {
		if step.Command == "" {
			return nil, fmt.Errorf("%w: step %d (%s)", ErrEmptyCommand, i, step.Name)
		}
	}

	return &s, nil
}
