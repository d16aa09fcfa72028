package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
)

// BattleRequest is the body posted to the battle service.
// Teams are Showdown team text.
type BattleRequest struct {
	MyTeam    string `json:"my_team"`
	EnemyTeam string `json:"enemy_team"`
	MySize    int    `json:"my_size"`
	TurnLimit int    `json:"turn_limit"`
}

// BattleResponse is the battle service reply.
type BattleResponse struct {
	Outcome
	Error string `json:"error,omitempty"`
}

// Remote calls an HTTP battle service.
type Remote struct {
	baseURL     string
	turnCeiling int
	httpClient  *http.Client
	logger      *log.Logger
}

var _ Simulator = (*Remote)(nil)

// RemoteOptions configures a Remote simulator.
type RemoteOptions struct {
	BaseURL     string
	Timeout     time.Duration
	TurnCeiling int
	Logger      *log.Logger
}

// NewRemote creates a client for the battle service at opts.BaseURL.
func NewRemote(opts RemoteOptions) *Remote {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.TurnCeiling <= 0 {
		opts.TurnCeiling = DefaultTurnCeiling
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Remote{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		turnCeiling: opts.TurnCeiling,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		logger:      logger,
	}
}

// Simulate implements Simulator.
func (r *Remote) Simulate(ctx context.Context, mine, enemy []creature.Spec) (Outcome, error) {
	if len(mine) == 0 {
		return Outcome{Survivors: []bool{}}, nil
	}

	body, err := json.Marshal(BattleRequest{
		MyTeam:    creature.ShowdownTeam(mine),
		EnemyTeam: creature.ShowdownTeam(enemy),
		MySize:    len(mine),
		TurnLimit: r.turnCeiling,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("sim: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/battle", bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("sim: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return Outcome{}, fmt.Errorf("sim: failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, fmt.Errorf("sim: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Outcome{}, fmt.Errorf("sim: service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var br BattleResponse
	if err := json.Unmarshal(respBody, &br); err != nil {
		return Outcome{}, fmt.Errorf("sim: failed to parse response: %w", err)
	}
	if br.Error != "" {
		return Outcome{}, fmt.Errorf("sim: service error: %s", br.Error)
	}

	r.logger.Debug("battle resolved", "win", br.Won, "turns", br.Metrics.Turns, "took", time.Since(start))
	return check(br.Outcome, mine)
}
