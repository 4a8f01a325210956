package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kay54068/halremote-go/internal/halconfig"
	"github.com/kay54068/halremote-go/internal/halpin"
	"github.com/kay54068/halremote-go/internal/halsession"
	"github.com/kay54068/halremote-go/internal/haltransport"
	"github.com/kay54068/halremote-go/internal/haltui"
	"github.com/kay54068/halremote-go/internal/halwire"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML session config (overrides the -command/-update/-name/-heartbeat flags)")
	commandURI := flag.String("command", "ws://127.0.0.1:5001/command", "command channel WebSocket URL")
	updateURI := flag.String("update", "ws://127.0.0.1:5002/update", "update channel WebSocket URL")
	name := flag.String("name", "mymachine", "remote component name")
	heartbeatMs := flag.Int("heartbeat", 3000, "command heartbeat period in milliseconds, 0 disables")
	flag.Parse()

	opts := halsession.Options{
		CommandURI:      *commandURI,
		UpdateURI:       *updateURI,
		Name:            *name,
		HeartbeatPeriod: time.Duration(*heartbeatMs) * time.Millisecond,
		Logger:          log.New(os.Stderr, "halmonitor: ", log.LstdFlags),
	}
	if *configPath != "" {
		cfg, err := halconfig.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "halmonitor: %v\n", err)
			os.Exit(1)
		}
		opts.CommandURI = cfg.CommandURI
		opts.UpdateURI = cfg.UpdateURI
		opts.Name = cfg.Name
		opts.HeartbeatPeriod = cfg.HeartbeatPeriod()
	}

	sess := halsession.New(opts, haltransport.NewWSAdapter(), halwire.JSONCodec{})
	sess.SetPinSource(demoPins())
	sess.SetReady(true)

	m := haltui.New(sess)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "halmonitor: %v\n", err)
		os.Exit(1)
	}
}

// demoPins is a small fixed component tree standing in for whatever a real
// host application would declare. A production embedder calls
// Session.SetPinSource with its own halpin.Source instead.
func demoPins() halpin.Source {
	return halpin.SliceSource{
		halpin.New("spindle-speed", halpin.Float64, halpin.Out),
		halpin.New("spindle-at-speed", halpin.Bool, halpin.Out),
		halpin.New("feed-override", halpin.Float64, halpin.In),
		halpin.New("tool-number", halpin.Int32, halpin.Out),
		halpin.New("estop", halpin.Bool, halpin.InOut),
	}
}
