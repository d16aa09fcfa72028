package sim

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
)

func team(levels ...int) []creature.Spec {
	out := make([]creature.Spec, len(levels))
	for i, l := range levels {
		out[i] = creature.Spec{Species: "Pidgey", Level: l}
	}
	return out
}

func TestMockEmptyTeamLoses(t *testing.T) {
	m := NewMock(1, 0)
	out, err := m.Simulate(context.Background(), nil, team(5))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if out.Won || len(out.Survivors) != 0 {
		t.Errorf("empty team should lose with no survivors: %+v", out)
	}
}

func TestMockOverwhelmingWin(t *testing.T) {
	m := NewMock(1, 0)
	wins := 0
	for i := 0; i < 100; i++ {
		out, err := m.Simulate(context.Background(), team(100, 100, 100, 100, 100, 100), team(1))
		if err != nil {
			t.Fatalf("Simulate failed: %v", err)
		}
		if len(out.Survivors) != 6 {
			t.Fatalf("expected 6 survivor flags, got %d", len(out.Survivors))
		}
		if out.Won {
			wins++
			if out.Metrics.OpponentFainted != 1 {
				t.Errorf("win should faint every opponent, got %d", out.Metrics.OpponentFainted)
			}
		}
	}
	if wins < 95 {
		t.Errorf("expected near-certain wins, got %d/100", wins)
	}
}

func TestMockLossWipes(t *testing.T) {
	m := NewMock(3, 0)
	for i := 0; i < 50; i++ {
		out, _ := m.Simulate(context.Background(), team(5, 5), team(100, 100, 100))
		if out.Won {
			continue
		}
		if out.Deaths() != 2 {
			t.Fatalf("loss should wipe the team, deaths=%d", out.Deaths())
		}
		if out.Metrics.OpponentFainted >= 3 {
			t.Errorf("loss cannot faint every opponent: %d", out.Metrics.OpponentFainted)
		}
	}
}

func TestMockDeterministic(t *testing.T) {
	run := func() []Outcome {
		m := NewMock(42, 0)
		var outs []Outcome
		for i := 0; i < 20; i++ {
			o, _ := m.Simulate(context.Background(), team(10, 12), team(11, 14))
			outs = append(outs, o)
		}
		return outs
	}

	a, b := run(), run()
	for i := range a {
		if a[i].Won != b[i].Won || a[i].Deaths() != b[i].Deaths() || a[i].Metrics != b[i].Metrics {
			t.Fatalf("battle %d differs between identical seeds", i)
		}
	}
}

func TestMockTurnCeilingTruncates(t *testing.T) {
	m := NewMock(1, 1)
	out, err := m.Simulate(context.Background(), team(5, 5), team(5, 5))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if !out.Truncated || out.Won {
		t.Errorf("expected truncated non-win, got %+v", out)
	}
	if out.Deaths() != 0 {
		t.Errorf("truncated battle must not kill anyone, deaths=%d", out.Deaths())
	}
}

func TestMockHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMock(1, 0).Simulate(ctx, team(5), team(5)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRemoteSimulate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/battle" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req BattleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !strings.Contains(req.MyTeam, "Level: 12") || req.MySize != 2 {
			http.Error(w, "unexpected team", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(BattleResponse{Outcome: Outcome{
			Won:       true,
			Survivors: []bool{true, false},
			Metrics:   Metrics{Turns: 17, OpponentFainted: 2},
		}})
	}))
	defer srv.Close()

	r := NewRemote(RemoteOptions{BaseURL: srv.URL + "/", Timeout: time.Second})
	out, err := r.Simulate(context.Background(), team(12, 12), team(10, 11))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if !out.Won || out.Deaths() != 1 || out.Metrics.Turns != 17 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "service error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":"showdown unavailable"}`))
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
		{
			name: "survivor mismatch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"win":true,"survivors":[true]}`))
			},
			wantErr: ErrSurvivorMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewRemote(RemoteOptions{BaseURL: srv.URL}).Simulate(context.Background(), team(5, 5), team(5))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemoteTruncatedKeepsEveryoneAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"win":true,"truncated":true,"survivors":[false,true]}`))
	}))
	defer srv.Close()

	out, err := NewRemote(RemoteOptions{BaseURL: srv.URL}).Simulate(context.Background(), team(5, 5), team(5))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if out.Won || out.Deaths() != 0 {
		t.Errorf("truncated outcome must be a non-win with no deaths: %+v", out)
	}
}

func TestPoolAcquireRelease(t *testing.T) {
	p := NewPoolOf(2, func(i int) Simulator { return NewMock(int64(i), 0) })
	if p.Size() != 2 || p.Available() != 2 {
		t.Fatalf("Size=%d Available=%d", p.Size(), p.Available())
	}

	ctx := context.Background()
	a, _ := p.Acquire(ctx)
	b, _ := p.Acquire(ctx)
	if p.Available() != 0 {
		t.Errorf("Available() = %d after acquiring all", p.Available())
	}

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(timeout); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	p.Release(a)
	p.Release(b)
	p.Release(NewMock(9, 0)) // foreign simulator is dropped
	if p.Available() != 2 {
		t.Errorf("Available() = %d after release", p.Available())
	}
}

func TestPoolSimulate(t *testing.T) {
	p := NewPool(NewMock(1, 0))
	out, err := p.Simulate(context.Background(), team(50), team(5))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if len(out.Survivors) != 1 {
		t.Errorf("expected 1 survivor flag, got %d", len(out.Survivors))
	}
	if p.Available() != 1 {
		t.Error("simulator must be released after the battle")
	}

	if _, err := NewPool().Acquire(context.Background()); err == nil {
		t.Error("empty pool should fail to acquire")
	}
}
