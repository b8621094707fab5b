package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type Stdio struct {
	in    *bufio.Reader
	out   io.Writer
	inFd  int
	isTTY func(fd int) bool
}

func NewStdio() IO {
	return &Stdio{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		inFd:  int(os.Stdin.Fd()),
		isTTY: term.IsTerminal,
	}
}

// NewStream ввод и вывод поверх произвольных потоков, без терминала
func NewStream(in io.Reader, out io.Writer) IO {
	return &Stdio{
		in:    bufio.NewReader(in),
		out:   out,
		inFd:  -1,
		isTTY: func(int) bool { return false },
	}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (s *Stdio) ReadSecret(prompt string) (string, error) {
	// Токен могут передать через pipe
	if !s.isTTY(s.inFd) {
		return s.ReadInput(prompt)
	}

	s.Printf("%s", prompt)
	secret, err := term.ReadPassword(s.inFd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}
