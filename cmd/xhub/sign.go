package main

import (
	"fmt"
	"io"

	"xhub-signature/internal/signature"
)

type signCommand struct {
	Secret string      `long:"secret" env:"XHUB_SECRET" description:"Shared secret"`
	Alg    string      `long:"alg" default:"sha256" description:"Algorithm (sha1 or sha256)"`
	File   string      `long:"file" short:"f" description:"Read the payload from a file ('-' for stdin)"`
	Args   payloadArgs `positional-args:"yes"`

	stdin io.Reader
	out   io.Writer
}

// Execute implements flags.Commander
func (c *signCommand) Execute(args []string) error {
	engine, err := signature.New(signature.Options{Secret: c.Secret})
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	payload, err := readPayload(c.File, c.Args, c.stdin)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	header, err := engine.Sign(payload, signature.AlgorithmID(c.Alg))
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	fmt.Fprintln(c.out, header)
	return nil
}
