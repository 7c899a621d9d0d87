// Package botchannel wraps a bot subprocess with deadline-bounded read
// cycles, realizing the wire-protocol's per-turn request/response pattern
// over two background reader goroutines (stdout lines, stderr forwarding).
package botchannel

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/higcompetition/tournament/internal/proc"
)

// stderrMutex serializes "Bot#<i>: " echoes from every channel's stderr
// forwarder onto a single writer, so concurrent bots never interleave.
var stderrMutex sync.Mutex

// Channel is the communication channel with one bot. The referee drives it
// through StartRead/CancelReadBlocking/ShutDown; two background goroutines
// (stdout line reader, stderr forwarder) run for the channel's lifetime.
//
// Invariants: while a cycle is not active, Response/HasRead/IsTimeOut
// are stable and untouched by the reader goroutine; at most one cycle
// is in flight between StartRead and its resolution.
type Channel struct {
	botIndex int
	bot      *proc.Bot
	errOut   io.Writer

	lines    chan string   // delivered by the perpetual stdout reader
	stopCh   chan struct{} // closed by ShutDown to unstick a blocked send
	readerWG sync.WaitGroup

	mu             sync.Mutex
	waitForMessage bool
	hasRead        bool
	timeOut        bool
	response       string
	shutdown       bool
	cycleCancel    chan struct{}
	cycleDone      chan struct{}
	cancelled      bool
}

// New starts a bot process and begins its two background reader goroutines.
func New(botIndex int, executable string, errOut io.Writer) (*Channel, error) {
	bot, err := proc.Start(executable)
	if err != nil {
		return nil, err
	}
	c := &Channel{
		botIndex:       botIndex,
		bot:            bot,
		errOut:         errOut,
		lines:          make(chan string, 1),
		stopCh:         make(chan struct{}),
		waitForMessage: true,
	}
	c.readerWG.Add(2)
	go c.readStdout()
	go c.readStderr()
	return c, nil
}

// Write sends p verbatim to the bot's stdin.
func (c *Channel) Write(p []byte) error {
	return c.bot.Write(p)
}

// StartRead begins a read cycle bounded by timeLimit. Precondition: the
// channel is idle (not mid-cycle) and not shut down.
func (c *Channel) StartRead(timeLimit time.Duration) {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	if !c.waitForMessage {
		panic("botchannel: StartRead called while a cycle is already active")
	}
	c.hasRead = false
	c.timeOut = false
	c.response = ""
	c.waitForMessage = false
	c.cancelled = false
	cancel := make(chan struct{})
	done := make(chan struct{})
	c.cycleCancel = cancel
	c.cycleDone = done
	c.mu.Unlock()

	go c.runCycle(timeLimit, cancel, done)
}

// runCycle waits for a line, a timeout, or a cancellation, whichever comes
// first, then releases the read guard by closing done and flipping
// waitForMessage back to true.
func (c *Channel) runCycle(timeLimit time.Duration, cancel, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(timeLimit)
	defer timer.Stop()

	select {
	case line := <-c.lines:
		c.mu.Lock()
		c.response = line
		c.hasRead = true
		c.mu.Unlock()
	case <-timer.C:
		c.mu.Lock()
		c.timeOut = true
		c.mu.Unlock()
	case <-cancel:
		// Leave without setting timeOut.
	}

	c.mu.Lock()
	c.waitForMessage = true
	c.mu.Unlock()
}

// CancelReadBlocking aborts the in-flight read cycle, if any, and blocks
// until the reader has relinquished its exclusive read guard. Idempotent.
func (c *Channel) CancelReadBlocking() {
	c.mu.Lock()
	if c.cancelled || c.cycleCancel == nil {
		done := c.cycleDone
		c.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	c.cancelled = true
	cancel, done := c.cycleCancel, c.cycleDone
	c.mu.Unlock()

	close(cancel)
	<-done
}

// ShutDown terminates the background reader goroutines and releases the
// underlying process. Safe to call whether or not a cycle is active.
func (c *Channel) ShutDown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()

	c.CancelReadBlocking()
	close(c.stopCh)
	_ = c.bot.Close()
	c.readerWG.Wait()
}

// HasRead reports whether a full line was received during the current cycle.
func (c *Channel) HasRead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasRead
}

// IsTimeOut reports whether the current cycle ended because its deadline
// elapsed before a line arrived.
func (c *Channel) IsTimeOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeOut
}

// Response returns the last line received, or the empty string.
func (c *Channel) Response() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.response
}

// readStdout perpetually scans newline-terminated lines from the bot's
// stdout and delivers each onto c.lines. It never blocks the referee: any
// line arriving while no cycle is active just waits in the channel buffer
// (or in the OS pipe, once that buffer is full) until the next StartRead
// consumes it, matching the semantics of a single pending response slot.
// A bot that sends more than one line per prompt can have its extra line
// sit in that buffer and get picked up as the response to a later,
// unrelated StartRead; this relies on bots replying at most once per
// prompt, which the wire protocol requires.
func (c *Channel) readStdout() {
	defer c.readerWG.Done()
	for {
		line, err := c.bot.Stdout.ReadString('\n')
		if line != "" {
			select {
			case c.lines <- strings.TrimSuffix(line, "\n"):
			case <-c.stopCh:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// readStderr forwards the bot's stderr to errOut, prefixed with its index,
// serialized against every other bot's forwarder by stderrMutex.
func (c *Channel) readStderr() {
	defer c.readerWG.Done()
	buf := make([]byte, 1024)
	for {
		n, err := c.bot.Stderr.Read(buf)
		if n > 0 {
			stderrMutex.Lock()
			fmt.Fprintf(c.errOut, "Bot#%d: ", c.botIndex)
			c.errOut.Write(buf[:n])
			stderrMutex.Unlock()
		}
		if err != nil {
			return
		}
	}
}
