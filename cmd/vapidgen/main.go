package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"eagain.net/go/vapidgen/internal/keysource"
	"eagain.net/go/vapidgen/internal/vapidenv"
	"golang.org/x/sys/unix"
)

// ignoreEPIPEWriter is a Writer that ignores EPIPE errors
// and discards the data.
type ignoreEPIPEWriter struct {
	w io.Writer
}

func (i *ignoreEPIPEWriter) Write(p []byte) (int, error) {
	n, err := i.w.Write(p)
	if errors.Is(err, unix.EPIPE) {
		return len(p), nil
	}
	return n, err
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("vapidgen: ")

	opts := vapidenv.DefaultOptions()
	var verify bool
	flag.StringVar(&opts.EnvFile, "env", opts.EnvFile, "dotenv `file` to append the keys to")
	flag.StringVar(&opts.PublicVar, "public-var", opts.PublicVar, "variable `name` for the public key")
	flag.StringVar(&opts.PrivateVar, "private-var", opts.PrivateVar, "variable `name` for the private key")
	flag.Var(&opts.Format, "format", "key encoding, der (PKCS #8 and SubjectPublicKeyInfo) or raw (scalar and point)")
	flag.StringVar(&opts.Prefix, "prefix", "", "regenerate until the encoded public key starts with `prefix`")
	flag.IntVar(&opts.MaxAttempts, "max-attempts", opts.MaxAttempts, "give up on -prefix after `n` keys")
	flag.BoolVar(&verify, "verify", false, "check the key pair in the env file instead of generating one")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
	}

	// a closed stdout must not stop the keys from being saved
	signal.Ignore(unix.SIGPIPE)
	stdout := &ignoreEPIPEWriter{os.Stdout}

	if verify {
		if err := vapidenv.Verify(stdout, opts); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := vapidenv.Generate(keysource.New(), stdout, opts); err != nil {
		log.Fatal(err)
	}
}
