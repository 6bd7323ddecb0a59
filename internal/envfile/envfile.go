// Package envfile appends variable assignments to dotenv files, and
// reads them back.
package envfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Entry struct {
	Key   string
	Value string
}

// ValidKey reports whether key can be used as a variable name.
func ValidKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '_', 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func (e Entry) validate() error {
	if !ValidKey(e.Key) {
		return fmt.Errorf("invalid variable name: %q", e.Key)
	}
	if strings.ContainsAny(e.Value, "\r\n") {
		return fmt.Errorf("value of %s contains a line break", e.Key)
	}
	return nil
}

type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEntries writes every entry as "\nKEY=value". Nothing is
// written unless all entries are valid, and everything goes out in a
// single Write so appends from other processes do not land between
// the lines.
func (w *Writer) WriteEntries(entries ...Entry) error {
	buf := new(bytes.Buffer)
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return err
		}
		buf.WriteString("\n")
		buf.WriteString(e.Key)
		buf.WriteString("=")
		buf.WriteString(e.Value)
	}
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// Append adds entries to the end of the file at path, creating it if
// needed. A newly created file is readable only by its owner, as it
// is expected to hold secrets.
func Append(path string, entries ...Entry) (err error) {
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("cannot open env file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cannot close env file: %w", cerr)
		}
	}()

	if err := NewWriter(f).WriteEntries(entries...); err != nil {
		return fmt.Errorf("cannot write env file: %w", err)
	}
	return nil
}

// ErrUnset is returned by Lookup for variables the file does not
// assign.
var ErrUnset = errors.New("variable not set")

// Read parses the dotenv file at path. When a variable is assigned
// more than once, the last assignment wins.
func Read(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file: %w", err)
	}
	return vars, nil
}

// Lookup returns the values of keys, in order, from the dotenv file at
// path.
func Lookup(path string, keys ...string) ([]string, error) {
	vars, err := Read(path)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		v, ok := vars[key]
		if !ok {
			return nil, fmt.Errorf("%s: %w", key, ErrUnset)
		}
		values = append(values, v)
	}
	return values, nil
}
