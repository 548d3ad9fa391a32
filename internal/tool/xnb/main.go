// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Tool to unpack the payload of XNA content (XNB) files.
//
// Example usage:
//	$ go build -o xnb ./internal/tool/xnb
//	$ ./xnb --output=out --compress=zstd Content/*.xnb
//	$ ./xnb --info Content/Fonts/SmallFont.xnb
//	Content/Fonts/SmallFont.xnb:
//		header:    xnb{platform: 'w', version: 5, hidef: true, compression: lzx, size: 10373, decompressed: 39842}
//		frames:    2
//		size:      38.91Ki
//		crc32:     5fa1c3e2
//
// Settings may also be given in the environment or in a .env file, using the
// flag name in upper case prefixed with XNB_ (e.g., XNB_COMPRESS=gzip).
package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/golib/unitconv"
	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"

	"github.com/dsnet/xnbcompress/xnb"
)

func main() {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	cli, err := NewConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}

	switch {
	case cli.Debug:
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debug("debug mode enabled")
	case cli.Quiet:
		logrus.SetLevel(logrus.ErrorLevel)
	}

	var failed bool
	for _, name := range cli.Files {
		if err := processFile(cli, name, os.Stdout); err != nil {
			logrus.Errorf("%s: %v", name, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// processFile unpacks a single XNB file according to the settings in cli.
// Output for "-" and the --info report go to stdout.
func processFile(cli *CLI, name string, stdout io.Writer) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "unable to open input")
	}
	defer f.Close()

	xr, err := xnb.NewReader(f, &xnb.ReaderConfig{
		Logger:         logrus.WithField("file", name),
		TranslateCalls: cli.TranslateCalls,
		MaxSize:        cli.MaxBytes,
	})
	if err != nil {
		return errors.Wrap(err, "unable to read header")
	}

	if cli.Info {
		n, err := io.Copy(ioutil.Discard, xr)
		if err != nil {
			return errors.Wrap(err, "unable to decompress payload")
		}
		printInfo(stdout, name, xr, n)
		return xr.Close()
	}

	var out *os.File
	var dst io.Writer = stdout
	outName := "stdout"
	if cli.Output != "-" {
		outName = filepath.Join(cli.Output, outputName(name, cli.Compress))
		if out, err = os.Create(outName); err != nil {
			return errors.Wrap(err, "unable to create output")
		}
		defer out.Close()
		dst = out
	}

	zw, err := newCompressor(dst, cli.Compress)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s writer", cli.Compress)
	}
	n, err := io.Copy(zw, xr)
	if err != nil {
		return errors.Wrap(err, "unable to unpack payload")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrapf(err, "unable to finish %s stream", cli.Compress)
	}
	if err := xr.Close(); err != nil {
		return err
	}
	if out != nil {
		if err := out.Close(); err != nil {
			return errors.Wrap(err, "unable to close output")
		}
	}

	logrus.WithFields(logrus.Fields{
		"file":   name,
		"output": outName,
		"frames": xr.Frames(),
		"crc32":  fmt.Sprintf("%08x", xr.Checksum()),
	}).Infof("unpacked %sB", unitconv.FormatPrefix(float64(n), unitconv.Base1024, 2))
	return nil
}

func printInfo(w io.Writer, name string, xr *xnb.Reader, n int64) {
	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "\theader:    %v\n", xr.Header())
	fmt.Fprintf(w, "\tframes:    %d\n", xr.Frames())
	fmt.Fprintf(w, "\tsize:      %s\n", unitconv.FormatPrefix(float64(n), unitconv.Base1024, 2))
	fmt.Fprintf(w, "\tcrc32:     %08x\n", xr.Checksum())
}

// outputName derives the name of the unpacked payload from the input name.
func outputName(name, mode string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".bin"
	switch mode {
	case compressGzip:
		base += ".gz"
	case compressZstd:
		base += ".zst"
	case compressXZ:
		base += ".xz"
	}
	return base
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func newCompressor(w io.Writer, mode string) (io.WriteCloser, error) {
	switch mode {
	case compressGzip:
		return gzip.NewWriter(w), nil
	case compressZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return zw, nil
	case compressXZ:
		zw, err := xz.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return zw, nil
	case compressNone, "":
		return nopCloser{w}, nil
	default:
		return nil, errors.Errorf("unknown compression format: %q", mode)
	}
}
