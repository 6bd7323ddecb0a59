// Package vapidenv generates VAPID key pairs into dotenv files, and
// checks the pairs found there.
package vapidenv

import (
	"fmt"
	"io"
	"log"
	"strings"

	"eagain.net/go/vapidgen/internal/envfile"
	"eagain.net/go/vapidgen/internal/keysource"
	"eagain.net/go/vapidgen/internal/vapidkey"
)

const (
	debug = false
)

func debugf(format string, args ...interface{}) {
	if debug {
		log.Printf(format, args...)
	}
}

const (
	DefaultEnvFile     = ".env"
	DefaultPublicVar   = "VITE_VAPID_PUBLIC_KEY"
	DefaultPrivateVar  = "VITE_VAPID_PRIVATE_KEY"
	DefaultMaxAttempts = 1 << 20
)

type Options struct {
	EnvFile    string
	PublicVar  string
	PrivateVar string
	Format     vapidkey.Format

	// Prefix, if set, is required of the encoded public key. Keys
	// are generated until one matches, at most MaxAttempts times.
	Prefix      string
	MaxAttempts int
}

func DefaultOptions() *Options {
	return &Options{
		EnvFile:     DefaultEnvFile,
		PublicVar:   DefaultPublicVar,
		PrivateVar:  DefaultPrivateVar,
		Format:      vapidkey.DER,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func newKeys(gen keysource.Generator, opts *Options) (*vapidkey.Encoded, error) {
	if opts.Prefix != "" && !vapidkey.PrefixReachable(opts.Format, opts.Prefix) {
		return nil, fmt.Errorf("no %v public key starts with %q", opts.Format, opts.Prefix)
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		key, err := gen.GenerateKey()
		if err != nil {
			return nil, err
		}
		enc, err := vapidkey.Encode(key, opts.Format)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(enc.Public, opts.Prefix) {
			debugf("found key after %d attempts", attempt)
			if err := vapidkey.Check(enc); err != nil {
				return nil, fmt.Errorf("generated key pair does not check out: %w", err)
			}
			return enc, nil
		}
		if attempt >= maxAttempts {
			return nil, fmt.Errorf("no public key starting with %q in %d attempts", opts.Prefix, attempt)
		}
	}
}

func printKeys(w io.Writer, enc *vapidkey.Encoded) error {
	_, err := fmt.Fprintf(w, "\nVAPID Keys generated successfully!\n\nPublic Key:\n%s\n\nPrivate Key:\n%s\n", enc.Public, enc.Private)
	return err
}

// Generate makes a new key pair, prints it to stdout and appends it to
// the env file. Earlier assignments in the file are left in place.
func Generate(gen keysource.Generator, stdout io.Writer, opts *Options) error {
	for _, v := range []string{opts.PublicVar, opts.PrivateVar} {
		if !envfile.ValidKey(v) {
			return fmt.Errorf("invalid variable name: %q", v)
		}
	}

	enc, err := newKeys(gen, opts)
	if err != nil {
		return err
	}
	if err := printKeys(stdout, enc); err != nil {
		return fmt.Errorf("cannot print keys: %w", err)
	}

	if err := envfile.Append(opts.EnvFile,
		envfile.Entry{Key: opts.PublicVar, Value: enc.Public},
		envfile.Entry{Key: opts.PrivateVar, Value: enc.Private},
	); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(stdout, "\nKeys have been saved to %s file\n", opts.EnvFile); err != nil {
		return fmt.Errorf("cannot print confirmation: %w", err)
	}
	return nil
}

// Verify checks that the env file holds a matching key pair. Of
// repeated assignments, the last one is checked.
func Verify(stdout io.Writer, opts *Options) error {
	values, err := envfile.Lookup(opts.EnvFile, opts.PublicVar, opts.PrivateVar)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.EnvFile, err)
	}
	enc := &vapidkey.Encoded{
		Public:  values[0],
		Private: values[1],
	}
	if err := vapidkey.Check(enc); err != nil {
		return fmt.Errorf("%s: %w", opts.EnvFile, err)
	}

	// Check parsed it already, this cannot fail
	pub, err := vapidkey.ParsePublicKey(enc.Public)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(stdout, "%s: %s and %s hold a matching P-256 key pair (tag %s)\n",
		opts.EnvFile, opts.PublicVar, opts.PrivateVar, vapidkey.Tag(pub)); err != nil {
		return err
	}
	return nil
}
