package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/paulodamaso/artipie-asto/config"
	"github.com/paulodamaso/artipie-asto/pkg/blockio"
	"github.com/paulodamaso/artipie-asto/pkg/bytestream"
	"github.com/paulodamaso/artipie-asto/pkg/env"
	"github.com/paulodamaso/artipie-asto/pkg/logging"
)

func main() {
	env.LoadEnv()

	app := &cli.App{
		Name:  "asto",
		Usage: "Stream bytes into and out of files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "backend",
				Value: "file",
				Usage: "block storage backend: file, memory or badger",
			},
			&cli.StringFlag{
				Name:  "config",
				Value: ".",
				Usage: "directory holding config.yaml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "cat",
				Usage:     "Stream a file's bytes to stdout",
				ArgsUsage: "<path>",
				Action:    catAction,
			},
			{
				Name:      "put",
				Usage:     "Stream stdin into a file",
				ArgsUsage: "<path>",
				Action:    putAction,
			},
			{
				Name:      "copy",
				Usage:     "Stream one file into another",
				ArgsUsage: "<src> <dst>",
				Action:    copyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if logging.Log != nil {
			logging.Log.Fatal(err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runtime struct {
	cfg      *config.AppConfig
	provider blockio.Provider
	cleanup  func() error
}

func setup(c *cli.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	logging.InitLogger(cfg.Debug)

	rt := &runtime{cfg: cfg, cleanup: func() error { return nil }}
	switch backend := c.String("backend"); backend {
	case "file":
		rt.provider = blockio.NewFileProvider(cfg.ReadBlockSize)
	case "memory":
		rt.provider = blockio.NewMemoryProvider(cfg.ReadBlockSize)
	case "badger":
		db, err := blockio.OpenBadgerProvider(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		rt.provider = db
		rt.cleanup = db.Close
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
	return rt, nil
}

func (rt *runtime) file(path string) *bytestream.File {
	return bytestream.NewFile(path, rt.provider,
		bytestream.WithBufferSize(rt.cfg.BufferSize),
		bytestream.WithSettleDelay(time.Duration(rt.cfg.SettleDelayMS)*time.Millisecond),
		bytestream.WithLogger(logging.Log),
	)
}

func catAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: cat <path>")
	}
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	stream := rt.file(c.Args().Get(0)).Flow(c.Context)
	for b := range stream.Bytes() {
		if err := out.WriteByte(b); err != nil {
			return err
		}
	}
	return stream.Err()
}

func putAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: put <path>")
	}
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	src := bytestream.NewByteStream(rt.cfg.BufferSize)
	go func() {
		in := bufio.NewReader(os.Stdin)
		for {
			b, err := in.ReadByte()
			if err == io.EOF {
				src.CloseSend(nil)
				return
			}
			if err != nil {
				src.CloseSend(err)
				return
			}
			if err := src.Send(c.Context, b); err != nil {
				src.CloseSend(err)
				return
			}
		}
	}()
	return rt.file(c.Args().Get(0)).Save(c.Context, src).Wait(c.Context)
}

func copyAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: copy <src> <dst>")
	}
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	flow := rt.file(c.Args().Get(0)).Flow(c.Context)
	return rt.file(c.Args().Get(1)).Save(c.Context, flow).Wait(c.Context)
}
