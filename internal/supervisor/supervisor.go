// Package supervisor owns the cloudflared child process from spawn to
// exit. Stdout and stderr are consumed by reader goroutines that emit
// typed events into a channel; a single state-machine goroutine consumes
// them, so no flag is ever mutated from a callback context.
package supervisor

import (
	"bufio"
	"io"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/waste3d/vite-tunnel/internal/domain"
)

const (
	defaultGracePeriod  = 5 * time.Second
	defaultBannerDelay  = 3 * time.Second
	readyMarkerA        = "Connection"
	readyMarkerB        = "registered"
)

// benignNoise lists stderr fragments the daemon is known to emit on
// healthy startups; they are visible at debug level only.
var benignNoise = []string{
	"ICMP proxy",
	"failed to parse icmp",
	"Cannot determine default origin certificate path",
}

var errorMarkers = []string{"error", "failed", "fatal"}

// Options tune one supervised run.
type Options struct {
	LogLevel string
	LogFile  string

	// GracePeriod is the window between the terminate signal and the
	// forceful kill. Zero means the 5-second default.
	GracePeriod time.Duration
	// BannerDelay is how long to wait for the readiness line before
	// printing the informational starting banner. Zero means 3 seconds.
	BannerDelay time.Duration
}

// Handle is the sole owner of the child process. All shutdown triggers
// call Stop on the same handle; the latch makes the kill sequence run
// exactly once.
type Handle struct {
	cmd      *exec.Cmd
	state    atomic.Int32
	stopping atomic.Bool
	events   chan event
	exited   chan struct{}
	grace    time.Duration
	banner   time.Duration
	log      zerolog.Logger
}

// BuildArgs assembles the daemon's argument vector:
// tunnel [--loglevel L] [--logfile F] run --token TOKEN.
func BuildArgs(token string, opts Options) []string {
	args := []string{"tunnel"}
	if opts.LogLevel != "" {
		args = append(args, "--loglevel", opts.LogLevel)
	}
	if opts.LogFile != "" {
		args = append(args, "--logfile", opts.LogFile)
	}
	return append(args, "run", "--token", token)
}

// Start spawns the daemon and begins supervising it.
func Start(daemonPath, token string, opts Options, log zerolog.Logger) (*Handle, error) {
	h := &Handle{
		events: make(chan event, 64),
		exited: make(chan struct{}),
		grace:  opts.GracePeriod,
		banner: opts.BannerDelay,
		log:    log,
	}
	if h.grace == 0 {
		h.grace = defaultGracePeriod
	}
	if h.banner == 0 {
		h.banner = defaultBannerDelay
	}

	h.cmd = exec.Command(daemonPath, BuildArgs(token, opts)...)
	stdout, err := h.cmd.StdoutPipe()
	if err != nil {
		return nil, &domain.ProcessSpawnError{Path: daemonPath, Err: err}
	}
	stderr, err := h.cmd.StderrPipe()
	if err != nil {
		return nil, &domain.ProcessSpawnError{Path: daemonPath, Err: err}
	}

	h.state.Store(int32(Starting))
	if err := h.cmd.Start(); err != nil {
		h.state.Store(int32(Terminated))
		return nil, &domain.ProcessSpawnError{Path: daemonPath, Err: err}
	}
	log.Info().Str("daemon", daemonPath).Int("pid", h.cmd.Process.Pid).Msg("daemon started")

	go h.scanStdout(stdout)
	go h.scanStderr(stderr)
	go h.observeExit()
	go h.run()

	return h, nil
}

func (h *Handle) State() State {
	return State(h.state.Load())
}

// Wait blocks until the daemon process has terminated.
func (h *Handle) Wait() {
	<-h.exited
}

// Stop drives the graceful-then-forceful shutdown sequence. It is safe to
// call from any number of trigger sites concurrently; only the first call
// sends signals, the rest are no-ops.
func (h *Handle) Stop() {
	if !h.stopping.CompareAndSwap(false, true) {
		return
	}
	if h.State() == Terminated {
		return
	}
	h.state.Store(int32(Terminating))
	h.log.Info().Msg("stopping tunnel daemon")

	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process already gone; the exit observer will finish up.
		h.log.Debug().Err(err).Msg("terminate signal not delivered")
	}

	select {
	case <-h.exited:
	case <-time.After(h.grace):
		h.log.Warn().Msg("daemon did not exit in time, killing")
		if err := h.cmd.Process.Kill(); err != nil {
			h.log.Debug().Err(err).Msg("kill signal not delivered")
		}
		<-h.exited
	}
}

func (h *Handle) scanStdout(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, readyMarkerA) && strings.Contains(line, readyMarkerB) {
			h.events <- event{kind: readyDetected, line: line}
			continue
		}
		h.log.Debug().Str("stream", "stdout").Msg(line)
	}
}

func (h *Handle) scanStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if isBenign(line) {
			h.log.Debug().Str("stream", "stderr").Msg(line)
			continue
		}
		if isErrorLine(line) {
			h.events <- event{kind: errorLine, line: line}
			continue
		}
		h.events <- event{kind: warningLine, line: line}
	}
}

func (h *Handle) observeExit() {
	err := h.cmd.Wait()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	h.events <- event{kind: exited, code: code}
}

// run is the state machine. It is the only goroutine that mutates state
// in response to daemon output.
func (h *Handle) run() {
	bannerTimer := time.NewTimer(h.banner)
	defer bannerTimer.Stop()

	for {
		select {
		case <-bannerTimer.C:
			if h.State() == Starting {
				h.log.Info().Msg("tunnel is starting, waiting for the edge connection to register")
			}
		case ev := <-h.events:
			switch ev.kind {
			case readyDetected:
				if s := h.State(); s == Starting || s == Degraded {
					h.state.Store(int32(Connected))
					h.log.Info().Msg("tunnel connection registered")
				}
			case errorLine:
				h.log.Warn().Str("stream", "stderr").Msg(ev.line)
				if h.State() == Starting {
					h.state.Store(int32(Degraded))
				}
			case warningLine:
				h.log.Info().Str("stream", "stderr").Msg(ev.line)
			case exited:
				h.state.Store(int32(Terminated))
				if ev.code != 0 && !h.stopping.Load() {
					h.log.Error().Int("code", ev.code).Msg("daemon exited unexpectedly")
				} else {
					h.log.Info().Int("code", ev.code).Msg("daemon exited")
				}
				close(h.exited)
				return
			}
		}
	}
}

func isBenign(line string) bool {
	for _, n := range benignNoise {
		if strings.Contains(line, n) {
			return true
		}
	}
	return false
}

func isErrorLine(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range errorMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
