package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Start the SSH play server",
	Long: `Start an SSH server that lets users connect and play gauntlets.

Each SSH connection gets its own session with the gauntlet picker.
Runs are stored per-server (all users share the same runs board).

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise ssh.host_key_path from the config
  - Otherwise auto-generates a key at ~/.nuzlocke/host_key

Examples:
  gauntlet ssh                          # Listen on ssh.host:ssh.port
  gauntlet ssh --addr :2222             # Listen on port 2222
  gauntlet ssh --host-key ./my_host_key # Use specific host key

Users can connect with:
  ssh localhost -p 2222`,
	Run: runSSH,
}

func init() {
	sshCmd.Flags().StringVar(&flagSSHAddr, "addr", "", "SSH server address (default ssh.host:ssh.port from config)")
	sshCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file")
	sshCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runSSH(_ *cobra.Command, _ []string) {
	a := setup()

	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = flagSSHAddr
	if cfg.Address == "" {
		cfg.Address = net.JoinHostPort(a.cfg.SSH.Host, strconv.Itoa(a.cfg.SSH.Port))
	}
	cfg.HostKeyPath = flagHostKey
	if cfg.HostKeyPath == "" {
		cfg.HostKeyPath = a.cfg.SSH.HostKeyPath
	}
	cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute

	store := a.tryStore()
	defer closeStore(store)

	server, err := tui.NewSSHServer(cfg, store, a.envFactory(), a.logger.WithPrefix("ssh"))
	if err != nil {
		fatalf("cannot create server: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Starting gauntlet SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(ctx); err != nil {
		fatalf("server error: %v", err)
	}
}
