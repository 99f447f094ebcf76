package feed

import (
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// Parse builds the Feed described by spec:
//
//	stdin               the stdin argument
//	file:PATH           a file
//	cmd:COMMAND LINE    the standard output of a command
//	http://, https://   the body of a GET request
//	ws://, wss://       the messages of a websocket
func Parse(spec string, stdin io.ReadCloser) (Feed, error) {
	switch {
	case IsStdin(spec):
		return NewReader(stdin), nil
	case strings.HasPrefix(spec, "file:"):
		path := strings.TrimPrefix(spec, "file:")
		if path == "" {
			return nil, errors.Wrap(ErrUnknownSpec, "missing file path")
		}

		return NewFile(path), nil
	case strings.HasPrefix(spec, "cmd:"):
		args, err := shlex.Split(strings.TrimPrefix(spec, "cmd:"))
		if err != nil {
			return nil, errors.Wrap(err, "unable to split command line")
		}

		if len(args) == 0 {
			return nil, errors.Wrap(ErrUnknownSpec, "missing command")
		}

		return NewCommand(args[0], args[1:]...), nil
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return NewHTTP(spec, nil), nil
	case strings.HasPrefix(spec, "ws://"), strings.HasPrefix(spec, "wss://"):
		return NewWebSocket(spec), nil
	}

	return nil, errors.Wrapf(ErrUnknownSpec, "%q", spec)
}

// IsStdin reports whether spec names the stdin feed.
func IsStdin(spec string) bool {
	return spec == "" || spec == "stdin" || spec == "-"
}
