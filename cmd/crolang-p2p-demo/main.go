// crolang-p2p-demo — CLI entry point.
//
// This tool drives a single crolangp2p.Client against a Broker: it
// authenticates, optionally allows incoming pairings, and connects to zero
// or more peers by id, then relays stdin/stdout lines over the data channel
// so two instances can chat interactively. Every paired peer gets its own
// stdin reader, so with several peers each line goes to whichever reader
// reads it.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-id, -broker, -allow-incoming, -connect).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	crolangp2p "github.com/crolang-p2p/crolang-p2p-node-sub000"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

var version = "dev"

const chatChannel = "chat"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	id := flag.String("id", "", "local node id")
	brokerURL := flag.String("broker", "", "broker WebSocket URL")
	allowIncoming := flag.Bool("allow-incoming", false, "accept inbound pairing attempts")
	connectTo := flag.String("connect", "", "comma-separated peer ids to connect to on startup")
	debugMode := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	opts := []crolangp2p.Option{crolangp2p.WithLogging(true, *debugMode)}

	pterm.Info.Println(fmt.Sprintf("crolang-p2p-demo — v%s", version))
	pterm.Println()

	if *id == "" {
		runInteractive(ctx, opts)
		return
	}

	if *brokerURL == "" {
		util.LogError("missing -broker for non-interactive mode")
		os.Exit(1)
	}

	var targets []string
	if *connectTo != "" {
		targets = strings.Split(*connectTo, ",")
	}

	runSession(ctx, *id, *brokerURL, *allowIncoming, targets, opts)
}

func runInteractive(ctx context.Context, opts []crolangp2p.Option) {
	id, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Local node id").Show()
	brokerURL, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Broker WebSocket URL").Show()

	allowAnswer, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Yes", "No"}).
		WithDefaultText("Accept inbound pairing attempts?").
		Show()

	var targets []string
	connectAnswer, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Peer ids to connect to (comma-separated, blank to skip)").
		Show()
	if connectAnswer = strings.TrimSpace(connectAnswer); connectAnswer != "" {
		targets = strings.Split(connectAnswer, ",")
	}

	pterm.Println()
	runSession(ctx, strings.TrimSpace(id), strings.TrimSpace(brokerURL), allowAnswer == "Yes", targets, opts)
}

func runSession(ctx context.Context, id, brokerURL string, allowIncoming bool, targets []string, opts []crolangp2p.Option) {
	client := crolangp2p.New(opts...)

	if err := client.ConnectToBroker(ctx, brokerURL, id, "", nil, crolangp2p.BrokerCallbacks{
		OnReconnectionAttempt: func(attempt int) {
			util.LogWarning("broker: reconnection attempt %d", attempt)
		},
		OnSuccessfullyReconnected: func() {
			util.LogSuccess("broker: reconnected")
		},
		OnInvoluntaryDisconnection: func(cause crolangp2p.InvoluntaryDisconnectionCause) {
			util.LogError("broker: disconnected involuntarily: %s", cause)
		},
	}); err != nil {
		util.LogError("failed to connect to broker: %v", err)
		os.Exit(1)
	}
	defer client.DisconnectFromBroker()

	util.LogSuccess("authenticated to broker as %q", id)
	util.StartStatsReporter(ctx)

	if allowIncoming {
		if err := client.AllowIncoming(crolangp2p.IncomingCallbacks{
			OnConnectionAttempt: func(remoteID, platform, version string) bool {
				util.LogInfo("incoming pairing attempt from %q (%s/%s)", remoteID, platform, version)
				return true
			},
			OnConnectionSuccess: func(node *crolangp2p.NodeHandle) {
				util.LogSuccess("paired with %q (incoming)", node.ID())
				attachChat(ctx, node)
			},
			OnDisconnection: func(remoteID string) {
				util.LogWarning("pairing with %q ended", remoteID)
			},
		}); err != nil {
			util.LogError("failed to allow incoming: %v", err)
		}
	}

	for _, target := range targets {
		target := strings.TrimSpace(target)
		if target == "" {
			continue
		}
		result := client.ConnectToSingleSync(target)
		if result.Err != nil {
			util.LogError("connect to %q failed: %v", target, result.Err)
			continue
		}
		util.LogSuccess("paired with %q (outgoing)", result.Node.ID())
		attachChat(ctx, result.Node)
	}

	<-ctx.Done()
	util.LogInfo("shutting down")
}

// attachChat wires a connected peer's chat channel to stdin/stdout so two
// demo instances can exchange lines interactively.
func attachChat(ctx context.Context, node *crolangp2p.NodeHandle) {
	node.OnMessage(chatChannel, func(payload []byte) {
		fmt.Printf("%s> %s\n", node.ID(), string(payload))
	})
	node.OnDisconnection(func() {
		util.LogWarning("chat with %q ended", node.ID())
	})

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			if err := node.SendMsg(ctx, chatChannel, []byte(line)); err != nil {
				util.LogError("send to %q failed: %v", node.ID(), err)
				return
			}
		}
	}()
}
