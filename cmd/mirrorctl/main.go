package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"github.com/edvin/mirrord/internal/engine"
	"github.com/edvin/mirrord/internal/model"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "status":
		cmdStatus(os.Args[2:])
	case "pairs":
		cmdPairs(os.Args[2:])
	case "command":
		cmdCommand(os.Args[2:])
	case "run":
		cmdRun(os.Args[2:])
	case "daemon":
		cmdDaemon(os.Args[2:])
	case "reload":
		cmdReload(os.Args[2:])
	case "watch":
		cmdWatch(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: mirrorctl <command> [flags]

Commands:
  status              Show daemon state
  pairs               List backup pairs and their statuses
  command <pair-id>   Show the copy command for a pair
  run                 Trigger an immediate backup pass
  daemon start|stop   Arm or disarm the scheduler
  reload              Re-read the configuration file
  watch               Stream live status updates

The server address is taken from -addr or MIRRORD_ADDR
(default http://127.0.0.1:8390).`)
}

// addrFlag registers the shared -addr flag on a flag set.
func addrFlag(fs *flag.FlagSet) *string {
	return fs.String("addr", getEnv("MIRRORD_ADDR", "http://127.0.0.1:8390"), "mirrord API address")
}

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args)

	var state model.DaemonState
	get(*addr, "/v1/daemon", &state)

	running := "stopped"
	if state.Running {
		running = "running"
	}
	fmt.Printf("Daemon:    %s\n", running)
	fmt.Printf("Interval:  %s\n", state.Interval)
	if state.InPass {
		fmt.Println("Pass:      in progress")
	}
	if !state.NextFire.IsZero() {
		fmt.Printf("Next run:  %s\n", state.NextFire.Format(time.RFC3339))
	}
}

func cmdPairs(args []string) {
	fs := flag.NewFlagSet("pairs", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args)

	var views []engine.PairView
	get(*addr, "/v1/pairs", &views)

	if len(views) == 0 {
		fmt.Println("No backup pairs configured.")
		return
	}

	fmt.Printf("%-30s %-10s %-6s %-6s %s\n", "NAME", "STATE", "RUNS", "OK", "LAST RUN")
	for _, v := range views {
		lastRun := "-"
		if !v.Status.LastRun.IsZero() {
			lastRun = v.Status.LastRun.Format(time.RFC3339)
		}
		fmt.Printf("%-30s %-10s %-6d %-6d %s\n",
			v.Pair.DisplayName(), v.Status.State, v.Status.Runs, v.Status.Successes, lastRun)
		if v.Status.Last != nil && v.Status.Last.Message != "" {
			fmt.Printf("  %s\n", v.Status.Last.Message)
		}
	}
}

func cmdCommand(args []string) {
	fs := flag.NewFlagSet("command", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mirrorctl command <pair-id>")
		os.Exit(1)
	}

	var body map[string]string
	get(*addr, "/v1/pairs/"+fs.Arg(0)+"/command", &body)
	fmt.Println(body["command"])
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args)

	post(*addr, "/v1/run")
	fmt.Println("Backup pass triggered.")
}

func cmdDaemon(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mirrorctl daemon start|stop")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args[1:])

	switch args[0] {
	case "start":
		post(*addr, "/v1/daemon/start")
		fmt.Println("Daemon started.")
	case "stop":
		post(*addr, "/v1/daemon/stop")
		fmt.Println("Daemon stopped.")
	default:
		fmt.Fprintf(os.Stderr, "Unknown daemon action: %s\n", args[0])
		os.Exit(1)
	}
}

func cmdReload(args []string) {
	fs := flag.NewFlagSet("reload", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args)

	post(*addr, "/v1/config/reload")
	fmt.Println("Configuration reload requested.")
}

// watchFrame mirrors the watch stream payload.
type watchFrame struct {
	Daemon model.DaemonState `json:"daemon"`
	Pairs  []engine.PairView `json:"pairs"`
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	ws, _, err := websocket.Dial(ctx, *addr+"/v1/statuses/watch", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ws.CloseNow()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var frame watchFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad frame: %v\n", err)
			continue
		}

		states := make([]string, 0, len(frame.Pairs))
		for _, v := range frame.Pairs {
			states = append(states, fmt.Sprintf("%s=%s", v.Pair.DisplayName(), v.Status.State))
		}
		daemon := "stopped"
		if frame.Daemon.Running {
			daemon = "running"
		}
		fmt.Printf("[%s] daemon=%s %s\n",
			time.Now().Format("15:04:05"), daemon, strings.Join(states, " "))
	}
}

func get(addr, path string, out any) {
	resp, err := http.Get(addr + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad response: %v\n", err)
		os.Exit(1)
	}
}

func post(addr, path string) {
	resp, err := http.Post(addr+path, "application/json", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		fail(resp)
	}
}

func fail(resp *http.Response) {
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	msg := body["error"]
	if msg == "" {
		msg = resp.Status
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(1)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
