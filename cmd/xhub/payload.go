package main

import (
	"io"
	"os"
)

type payloadArgs struct {
	Payload string `positional-arg-name:"payload" description:"Payload, used when --file is not set"`
}

// readPayload returns the payload bytes exactly as given. file "-" reads
// stdin.
func readPayload(file string, args payloadArgs, stdin io.Reader) (string, error) {
	switch file {
	case "":
		return args.Payload, nil
	case "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	default:
		b, err := os.ReadFile(file)
		return string(b), err
	}
}
