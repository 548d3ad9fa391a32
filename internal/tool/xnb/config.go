// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package main

import (
	"math"

	"github.com/alecthomas/kong"
	"github.com/dsnet/golib/unitconv"
	"github.com/pkg/errors"
)

const EnvVarPrefix = "XNB"

// VERSION gets set during build.
var VERSION = "0.0.0"

// Output compression formats.
const (
	compressNone = "none"
	compressGzip = "gzip"
	compressZstd = "zstd"
	compressXZ   = "xz"
)

type CLI struct {
	Files []string `kong:"arg,help='XNB files to unpack'"`

	Output         string `kong:"help='Directory to write payloads to, or - for stdout',default='.',short='o'"`
	Compress       string `kong:"help='Compress written payloads (none, gzip, zstd, xz)',enum='none,gzip,zstd,xz',default='none',short='z'"`
	Info           bool   `kong:"help='Only print header and frame statistics',short='i'"`
	MaxSize        string `kong:"help='Reject files that decompress to more than this size (e.g. 64Mi, 1e9)',default='0'"`
	TranslateCalls bool   `kong:"help='Undo x86 E8 call translation in LZX payloads'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Quiet   bool             `kong:"help='Only report errors',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`

	// Internal bits
	MaxBytes int64 `kong:"-"`
}

// NewConfig parses the command line arguments, with defaults taken from
// environment variables prefixed with XNB_.
func NewConfig(args []string) (*CLI, error) {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("xnb"),
		kong.Description("Unpack the payload of XNA content files"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		})
	if err != nil {
		return nil, errors.Wrap(err, "error creating CLI parser")
	}

	if _, err := parser.Parse(args); err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}

	return cli, nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if len(cli.Files) == 0 {
		return errors.New("at least one file must be given")
	}

	if cli.Debug && cli.Quiet {
		return errors.New("--debug and --quiet are mutually exclusive")
	}

	n, err := unitconv.ParsePrefix(cli.MaxSize, unitconv.AutoParse)
	if err != nil {
		return errors.Wrapf(err, "invalid --max-size %q", cli.MaxSize)
	}
	if n < 0 || n > math.MaxInt64 {
		return errors.Errorf("--max-size out of range: %s", cli.MaxSize)
	}
	cli.MaxBytes = int64(n)

	return nil
}
