package crashy

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/go-errors/errors"

	"github.com/bvgastel/crashy/wire"
)

// The sidecar is the same binary re-executed with a private cookie in the
// environment and the read end of the crash pipe as fd 3. The cookie keeps
// a reporter from spawning reporters of its own.
const (
	reporterCookieKey = "CRASHY_REPORTER_COOKIE"
	reporterCookieVal = "b3b1b6f7a2c94d5cb0cb1fb66d9a19d2"
)

// reporterFd is where the pipe's read end lands in the child
// (after stdin, stdout, stderr).
const reporterFd = 3

var (
	reporterLink *os.File
	reporterCmd  *exec.Cmd
	// crashWriter is preallocated at setup so the fault path encodes
	// straight onto the pipe without touching the heap
	crashWriter *wire.Writer
)

func runningAsReporter() bool {
	return os.Getenv(reporterCookieKey) == reporterCookieVal
}

func reporterPipe() *os.File {
	return os.NewFile(reporterFd, "crash-pipe")
}

// startReporter spawns the sidecar and keeps the write end of the pipe.
// On failure the crash machinery continues without a reporter and the raw
// stderr fallback applies.
func startReporter() error {
	read, write, err := os.Pipe()
	if err != nil {
		return errors.New(err)
	}

	cmd := exec.Command(currentExecutable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), reporterCookieKey+"="+reporterCookieVal)
	// stdin and stdout go to the null device in the sidecar; stderr is
	// shared so the terminal rendering reaches the user
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{read}
	if err := cmd.Start(); err != nil {
		read.Close()
		write.Close()
		return errors.New(err)
	}
	read.Close()

	reporterLink = write
	reporterCmd = cmd
	crashWriter = wire.NewWriter(write)
	return nil
}

// reapReporter waits for the sidecar after the record is flushed, so the
// payload is out before the crashed process aborts.
func reapReporter() {
	if reporterCmd == nil {
		return
	}
	err := reporterCmd.Wait()
	if err == nil {
		return
	}
	if exit, ok := err.(*exec.ExitError); ok {
		fmt.Fprintf(os.Stderr, "◢◤◢◤◢◤ CRASH REPORTER stopped with status %d ◢◤◢◤◢◤\n", exit.ExitCode())
		return
	}
	fmt.Fprintln(os.Stderr, "◢◤◢◤◢◤ CRASH REPORTER stopped abnormally ◢◤◢◤◢◤")
}
