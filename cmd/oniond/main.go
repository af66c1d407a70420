// Command oniond is the Onion HA coordination daemon's command-line
// front-end: start the server, validate a configuration file, or query
// a running instance's cluster status.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/onionha/oniond/internal/config"
	"github.com/onionha/oniond/internal/history"
	"github.com/onionha/oniond/internal/logging"
	"github.com/onionha/oniond/internal/pidfile"
	"github.com/onionha/oniond/internal/server"
	"github.com/onionha/oniond/internal/transport"
	"github.com/onionha/oniond/internal/wire"
)

const (
	defaultConfigFile = "/etc/onion-ha/oniond.conf"
	defaultPIDFile    = "/var/run/oniond.pid"
	defaultHistoryDB  = "/var/lib/oniond/history.db"

	version   = "2.0.0"
	buildTag  = "go-rewrite"
	releaseOn = "2026-07-31"
	author    = "The Onion HA maintainers"
	copyright = "Copyright 2017-2026, The Onion HA maintainers"
	license   = "GNU GPLv3"
)

var (
	configFile    string
	statusHistory bool
)

func main() {
	root := &cobra.Command{
		Use:           "oniond",
		Short:         "Onion HA coordination daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStart,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "specify another configuration file")

	statusCmd := &cobra.Command{Use: "status", Short: "Show the cluster status", RunE: runStatus}
	statusCmd.Flags().BoolVar(&statusHistory, "history", false, "also show recent role-transition history")

	root.AddCommand(
		&cobra.Command{Use: "start", Short: "Start Onion HA in an interactive mode", RunE: runStart},
		&cobra.Command{Use: "check", Short: "Check the current configuration", RunE: runCheck},
		statusCmd,
		&cobra.Command{Use: "version", Short: "Show the daemon version", RunE: runVersion},
		&cobra.Command{Use: "about", Short: "About Onion HA", RunE: runAbout},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("oniond %s (build %s) released on %s\n", version, buildTag, releaseOn)
	return nil
}

func runAbout(cmd *cobra.Command, args []string) error {
	fmt.Printf(`
    ~ Onion HA Core ~

    Version: %s (build %s)
    Date:    %s
    Author:  %s

    %s
    %s

    https://github.com/ValentinBELYN/OnionHA
`, version, buildTag, releaseOn, author, copyright, license)
	return nil
}

func banner() {
	rule := strings.Repeat("≈", 60)
	fmt.Printf("%s\n    Onion HA %s\n    %s\n    %s\n\n%s\n\n", rule, version, copyright, license, rule)
}

// checkedOptions lists every option the core validates, in the order
// original_source/src/config.py's ConfigPilot registers them, so `check`
// prints a full OK/ERROR line for each one rather than only the failing
// ones.
var checkedOptions = []struct{ section, option string }{
	{"general", "address"},
	{"general", "gateway"},
	{"general", "initDelay"},
	{"cluster", "port"},
	{"cluster", "deadTime"},
	{"cluster", "nodes"},
	{"actions", "active"},
	{"actions", "passive"},
	{"logging", "enable"},
	{"logging", "level"},
}

func runCheck(cmd *cobra.Command, args []string) error {
	banner()
	fmt.Printf("Checking the configuration file:\n    %s\n\n", configFile)

	_, errs := config.Load(configFile)
	if isUnreadable(errs) {
		fmt.Println("The configuration file cannot be found or its syntax is wrong.")
		return nil
	}

	failed := make(map[string]string)
	for _, e := range errs {
		failed[e.Section+"."+e.Option] = e.Reason
	}

	var currentSection string
	numErrors := 0
	for _, opt := range checkedOptions {
		if opt.section != currentSection {
			currentSection = opt.section
			fmt.Printf("    %s\n    %s\n", strings.ToUpper(currentSection), strings.Repeat("-", len(currentSection)))
		}
		if reason, bad := failed[opt.section+"."+opt.option]; bad {
			fmt.Printf("    [ ERROR ] %-12s %s\n", opt.option, reason)
			numErrors++
		} else {
			fmt.Printf("    [ OK ]    %s\n", opt.option)
		}
	}
	fmt.Println()

	if numErrors == 0 {
		fmt.Println("Your configuration file looks good!")
		return nil
	}
	fmt.Printf("Errors: %d\n", numErrors)
	return nil
}

func isUnreadable(errs []*config.Error) bool {
	return len(errs) == 1 && errs[0].Option == ""
}

func runStart(cmd *cobra.Command, args []string) error {
	if os.Geteuid() != 0 {
		fmt.Println("Error: Onion HA does not have enough privileges to start.")
		os.Exit(2)
	}

	cfg, errs := config.Load(configFile)
	if len(errs) > 0 {
		fmt.Println("Error: unable to read the configuration file.\n\nType 'oniond check' to solve this error.")
		os.Exit(1)
	}

	pf, err := pidfile.Write(defaultPIDFile)
	if err != nil {
		fmt.Println("Error: an instance of Onion HA is already running.")
		os.Exit(1)
	}
	defer pf.Remove()

	log := logging.New(logging.Info)
	if cfg.LoggingEnable {
		log = logging.New(logging.ParseLevel(cfg.LoggingLevel))
		log.AddWriter(os.Stderr)
		if err := log.AddFile(cfg.LoggingFile); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		defer log.Close()
	}

	var hist *history.Store
	if h, err := history.Open(defaultHistoryDB); err == nil {
		hist = h
		defer hist.Close()
	} else {
		log.Warnf("main", "role-transition history disabled: %v", err)
	}

	srv, err := server.New(cfg, log, hist)
	if err != nil {
		fmt.Println("Error: the address of this node must be entered in the 'cluster' section of the configuration file.")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return srv.Run(ctx)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, errs := config.Load(configFile)
	if len(errs) > 0 {
		fmt.Println("Error: unable to read the configuration file.\n\nType 'oniond check' to solve this error.")
		os.Exit(1)
	}

	banner()

	pid, running := readRunningPID()
	if !running {
		fmt.Println("Onion HA is not running.")
		return nil
	}
	fmt.Printf("PID: %d\n\n", pid)

	sock, err := transport.Bind(0)
	if err != nil {
		fmt.Println("Error: unable to retrieve the cluster status.")
		os.Exit(1)
	}
	defer sock.Close()

	if err := sock.Send([]byte(wire.GetStatus), "127.0.0.1", cfg.Port); err != nil {
		fmt.Println("Error: unable to retrieve the cluster status.")
		os.Exit(1)
	}

	dgram, err := sock.Receive(time.Second, 0)
	if err != nil {
		fmt.Println("Error: unable to retrieve the cluster status.")
		os.Exit(1)
	}

	records, err := wire.DecodeDump(string(dgram.Payload))
	if err != nil {
		fmt.Println("Error: unable to retrieve the cluster status.")
		os.Exit(1)
	}

	fmt.Println("Cluster status:\n")
	for i, r := range records {
		fmt.Printf("    %-10d %-20s %s\n", i+1, r.Address, renderStatus(r.Status))
	}
	fmt.Printf("\nNodes: %d\n", len(records))

	if statusHistory {
		printHistory()
	}
	return nil
}

func printHistory() {
	hist, err := history.Open(defaultHistoryDB)
	if err != nil {
		fmt.Println("\nHistory: unavailable (" + err.Error() + ")")
		return
	}
	defer hist.Close()

	events, err := hist.Recent(10)
	if err != nil || len(events) == 0 {
		fmt.Println("\nHistory: no recorded events")
		return
	}

	fmt.Println("\nRecent history:\n")
	for _, e := range events {
		device := e.Device
		if device == "" {
			device = "-"
		}
		fmt.Printf("    %-20s %-12s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, device)
	}
}

func renderStatus(s wire.Status) string {
	switch s {
	case wire.StatusFailed:
		return "[ \033[91mFAILED\033[0m ]"
	case wire.StatusActive:
		return "[ ACTIVE ]"
	default:
		return "[ PASSIVE ]"
	}
}

func readRunningPID() (int, bool) {
	data, err := os.ReadFile(defaultPIDFile)
	if err != nil {
		return 0, false
	}
	var pid int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &pid); err != nil {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}
	return pid, true
}
