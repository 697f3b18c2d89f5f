// Command xhub signs and verifies X-Hub-Signature headers and runs a demo
// webhook receiver.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	parser := newParser(stdin, stdout)

	_, err := parser.ParseArgs(args)
	if err == nil {
		return 0
	}

	switch e := err.(type) {
	case *flags.Error:
		if e.Type == flags.ErrHelp {
			parser.WriteHelp(stdout)
			return 0
		}
		fmt.Fprintln(stderr, "Fault:", e.Message)
		return 2
	case *exitError:
		if e.err != nil {
			fmt.Fprintln(stderr, "Error:", e.err)
		}
		return e.code
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
}

func newParser(stdin io.Reader, stdout io.Writer) *flags.Parser {
	parser := flags.NewNamedParser("xhub", flags.HelpFlag|flags.PassDoubleDash)

	parser.AddCommand("sign", "Sign a payload",
		"Prints the X-Hub-Signature header value for a payload.",
		&signCommand{stdin: stdin, out: stdout})
	parser.AddCommand("verify", "Verify a signature header",
		"Prints true or false. Exits 1 when the signature does not match and 2 on a malformed or disallowed header.",
		&verifyCommand{stdin: stdin, out: stdout})
	parser.AddCommand("serve", "Run the webhook receiver",
		"Serves POST /webhook behind signature verification and GET /health.",
		&serveCommand{})

	return parser
}
