// Package proc spawns a bot executable and owns its standard streams.
package proc

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"time"

	"golang.org/x/xerrors"
)

// Bot is a running bot subprocess and its standard streams. The caller is
// expected to have already verified the executable exists and is
// executable; Start re-checks and returns a wrapped error if not, but the
// referee treats that as fatal rather than recoverable.
type Bot struct {
	cmd    *exec.Cmd
	Stdin  io.WriteCloser
	Stdout *bufio.Reader
	Stderr io.ReadCloser
}

// Validate checks that executable exists and carries at least one
// executable bit, without spawning it. The referee calls this at
// construction time so a missing or non-executable bot fails fast with a
// descriptive message rather than surfacing as a mysterious protocol error
// mid-tournament.
func Validate(executable string) error {
	info, err := os.Stat(executable)
	if err != nil {
		return xerrors.Errorf("bot executable %q was not found: %w", executable, err)
	}
	if info.Mode()&0111 == 0 {
		return xerrors.Errorf("bot executable %q cannot be executed (missing +x flag?)", executable)
	}
	return nil
}

// Start launches executable, wiring its own stdin/stdout/stderr pipes. The
// child inherits no other open handles.
func Start(executable string) (*Bot, error) {
	if err := Validate(executable); err != nil {
		return nil, err
	}

	cmd := exec.Command(executable)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, xerrors.Errorf("could not open stdin pipe for %q: %w", executable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, xerrors.Errorf("could not open stdout pipe for %q: %w", executable, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, xerrors.Errorf("could not open stderr pipe for %q: %w", executable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, xerrors.Errorf("could not start %q: %w", executable, err)
	}

	return &Bot{
		cmd:    cmd,
		Stdin:  stdin,
		Stdout: bufio.NewReader(stdout),
		Stderr: stderr,
	}, nil
}

// Write loops until all of p has been delivered to the child's stdin. Writes
// are otherwise best-effort: a broken pipe (child already exited) is
// reported to the caller, who treats it the same as a missing response.
func (b *Bot) Write(p []byte) error {
	for len(p) > 0 {
		n, err := b.Stdin.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// Close signals EOF to the child by closing its stdin, waits briefly for it
// to exit on its own, and kills it if it doesn't.
func (b *Bot) Close() error {
	_ = b.Stdin.Close()

	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(500 * time.Millisecond):
		_ = b.cmd.Process.Kill()
		<-done
		return nil
	}
}
