//go:build test

package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/srg/blconnect/internal/bluetoothctl"
	"github.com/stretchr/testify/suite"
)

const (
	testAddress   = "AA:BB:CC:DD:EE:FF"
	transportLine = "[NEW] Transport /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF/sep1/fd0\n"
)

// fakeRunner replays scripted results per argument line and records calls.
type fakeRunner struct {
	mu       sync.Mutex
	scripts  map[string][]*bluetoothctl.Result
	fallback map[string]*bluetoothctl.Result
	errs     map[string]error
	calls    []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		scripts:  make(map[string][]*bluetoothctl.Result),
		fallback: make(map[string]*bluetoothctl.Result),
		errs:     make(map[string]error),
	}
}

// Script queues results for args; the last one repeats once the queue is drained.
func (f *fakeRunner) Script(args []string, results ...*bluetoothctl.Result) {
	key := strings.Join(args, " ")
	f.scripts[key] = append(f.scripts[key], results...)
	f.fallback[key] = results[len(results)-1]
}

func (f *fakeRunner) Fail(args []string, err error) {
	f.errs[strings.Join(args, " ")] = err
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (*bluetoothctl.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)

	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if queue := f.scripts[key]; len(queue) > 0 {
		f.scripts[key] = queue[1:]
		return queue[0], nil
	}
	if res, ok := f.fallback[key]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("unexpected invocation: %s", key)
}

func (f *fakeRunner) Calls(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// CommandTestSuite resets the package-level command state and swaps the
// runner factory for a fakeRunner before every test.
type CommandTestSuite struct {
	suite.Suite
	runner          *fakeRunner
	originalFactory func(string, bool, *logrus.Logger) bluetoothctl.Runner
	originalNoColor bool
	factoryTool     string
	factoryPTY      bool
}

func (s *CommandTestSuite) SetupSuite() {
	s.originalFactory = bluetoothctl.NewRunner
	s.originalNoColor = color.NoColor
}

func (s *CommandTestSuite) TearDownSuite() {
	bluetoothctl.NewRunner = s.originalFactory
	color.NoColor = s.originalNoColor
}

func (s *CommandTestSuite) SetupTest() {
	color.NoColor = true

	s.runner = newFakeRunner()
	s.factoryTool = ""
	s.factoryPTY = false
	bluetoothctl.NewRunner = func(tool string, usePTY bool, _ *logrus.Logger) bluetoothctl.Runner {
		s.factoryTool = tool
		s.factoryPTY = usePTY
		return s.runner
	}

	resetFlags()
}

// resetFlags re-registers every flag so values never leak between tests.
func resetFlags() {
	rootCmd.ResetFlags()
	listCmd.ResetFlags()
	registerRootFlags()
	registerListFlags()
}

// ExecuteCommand runs the root command with args and returns stdout and stderr.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	// nil args would make cobra fall back to os.Args
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// devicesResult is bluetoothctl's listing output for lines.
func devicesResult(lines ...string) *bluetoothctl.Result {
	return &bluetoothctl.Result{Stdout: strings.Join(lines, "\n") + "\n"}
}

func connectArgs(address string) []string {
	return bluetoothctl.ConnectArgs(address, 5*time.Second)
}
