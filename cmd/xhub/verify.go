package main

import (
	"fmt"
	"io"

	"xhub-signature/internal/signature"
)

type verifyCommand struct {
	Secret string      `long:"secret" env:"XHUB_SECRET" description:"Shared secret"`
	Alg    string      `long:"alg" description:"Require this algorithm instead of consulting --hashes"`
	Hashes string      `long:"hashes" env:"XHUB_HASHES" default:"sha256" description:"Comma separated allow-list"`
	Header string      `long:"header" short:"H" required:"true" description:"Signature header value, e.g. sha256=<hex>"`
	File   string      `long:"file" short:"f" description:"Read the payload from a file ('-' for stdin)"`
	Args   payloadArgs `positional-args:"yes"`

	stdin io.Reader
	out   io.Writer
}

// Execute implements flags.Commander
func (c *verifyCommand) Execute(args []string) error {
	engine, err := signature.New(signature.Options{
		Secret: c.Secret,
		Hashes: signature.ParseAlgorithms(c.Hashes),
	})
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	payload, err := readPayload(c.File, c.Args, c.stdin)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	ok, err := engine.Verify(c.Header, payload, signature.AlgorithmID(c.Alg))
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	fmt.Fprintln(c.out, ok)
	if !ok {
		return &exitError{code: 1}
	}
	return nil
}
