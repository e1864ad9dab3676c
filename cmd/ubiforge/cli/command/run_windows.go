package command

import (
	"os"
	"os/exec"
	"os/signal"
)

// run starts the tool on the current console. There is no pty to allocate on windows: the tool shares the console,
// so ctrl+c reaches it directly and ubiforge only has to outlive it to report the exit status.
func run(path string, args []string) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	c := exec.Command(path, args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
