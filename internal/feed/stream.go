package feed

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// Stream is a Feed reading from an io.ReadCloser opened on Start.
type Stream struct {
	callbacks

	name   string
	open   func(ctx context.Context) (io.ReadCloser, error)
	cancel context.CancelFunc
	rc     io.ReadCloser
}

func newStream(name string, open func(ctx context.Context) (io.ReadCloser, error)) *Stream {
	return &Stream{name: name, open: open}
}

// NewReader reads r until EOF. Stop closes r.
func NewReader(r io.ReadCloser) *Stream {
	return newStream("reader", func(context.Context) (io.ReadCloser, error) {
		return r, nil
	})
}

// NewFile reads the file at path.
func NewFile(path string) *Stream {
	return newStream("file "+path, func(context.Context) (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open %s", path)
		}

		return f, nil
	})
}

// NewCommand reads the standard output of a process. Stop kills the process.
// A non-zero exit status is reported to onClose.
func NewCommand(name string, args ...string) *Stream {
	return newStream("command "+name, func(ctx context.Context) (io.ReadCloser, error) {
		cmd := exec.CommandContext(ctx, name, args...)

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, errors.Wrap(err, "unable to get command stdout")
		}

		err = cmd.Start()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to start %s", name)
		}

		return &commandOutput{ReadCloser: stdout, cmd: cmd}, nil
	})
}

type commandOutput struct {
	io.ReadCloser
	cmd *exec.Cmd
}

// Close waits for the process, which also closes stdout.
func (c *commandOutput) Close() error {
	err := c.cmd.Wait()
	if err != nil {
		return errors.Wrap(err, "command failed")
	}

	return nil
}

// Start opens the source and starts reading it in a goroutine.
func (s *Stream) Start(onChunk func([]byte), onClose func(error)) error {
	err := s.start(onChunk, onClose)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	rc, err := s.open(ctx)
	if err != nil {
		cancel()

		return errors.Wrapf(err, "unable to open %s", s.name)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.rc = rc
	s.mu.Unlock()

	go s.read(rc)

	return nil
}

func (s *Stream) read(rc io.ReadCloser) {
	buf := make([]byte, chunkSize)

	for {
		n, err := rc.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.chunk(chunk)
		}

		if err == nil {
			continue
		}

		closeErr := rc.Close()

		if errors.Is(err, io.EOF) {
			s.close(closeErr)
		} else {
			s.close(errors.Wrapf(err, "unable to read %s", s.name))
		}

		s.mu.Lock()
		s.cancel()
		s.mu.Unlock()

		return
	}
}

// Stop stops the delivery of callbacks and releases the source.
func (s *Stream) Stop() error {
	if !s.stop() {
		return nil
	}

	s.mu.Lock()
	cancel, rc := s.cancel, s.rc
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if rc == nil {
		return nil
	}

	// commands are released by the context cancellation
	if _, ok := rc.(*commandOutput); ok {
		return nil
	}

	err := rc.Close()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return errors.Wrapf(err, "unable to close %s", s.name)
	}

	return nil
}

var _ Feed = (*Stream)(nil)
