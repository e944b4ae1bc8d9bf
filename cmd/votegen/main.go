// Command votegen drives a running service with synthetic vote traffic. It
// fetches matchups, votes on them with random outcomes, and undoes a fraction
// of its own votes, which makes it useful for smoke tests and demo data.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Default configuration constants.
const (
	defaultNumVotes = 1000
	defaultUsers    = 20
	defaultWorkers  = 4
	defaultUndoRate = 0.05
	defaultTimeout  = 10 * time.Second
	defaultRunLimit = 10 * time.Minute
)

var votableCategories = []string{"value", "aesthetics", "speed"}

type matchupResponse struct {
	MatchupID string `json:"matchup_id"`
	Category  string `json:"category"`
	EntityA   string `json:"entity_a"`
	EntityB   string `json:"entity_b"`
}

type voteRequest struct {
	MatchupID string `json:"matchup_id"`
	WinnerID  string `json:"winner_id"`
	LoserID   string `json:"loser_id"`
	Category  string `json:"category"`
	UserID    string `json:"user_id"`
}

type voteResponse struct {
	VoteID string `json:"vote_id"`
}

type counters struct {
	votes    atomic.Int64
	undos    atomic.Int64
	failures atomic.Int64
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numVotes = flag.Int("votes", defaultNumVotes, "Number of votes to submit")
		users    = flag.Int("users", defaultUsers, "Number of distinct simulated users")
		workers  = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		undoRate = flag.Float64("undo-rate", defaultUndoRate, "Fraction of votes to undo")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	client := &http.Client{Timeout: *timeout}
	var stats counters

	perWorker := *numVotes / *workers
	if perWorker < 1 {
		perWorker = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		rng := rand.New(rand.NewSource(*seed + int64(w))) //nolint:gosec // synthetic traffic
		go func(rng *rand.Rand) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if ctx.Err() != nil {
					return
				}
				runOne(ctx, client, *baseURL, rng, *users, *undoRate, &stats)
			}
		}(rng)
	}
	wg.Wait()

	fmt.Printf("votes=%d undos=%d failures=%d\n",
		stats.votes.Load(), stats.undos.Load(), stats.failures.Load())
	if stats.failures.Load() > 0 {
		os.Exit(1)
	}
}

// runOne performs one matchup/vote cycle and possibly an undo.
func runOne(ctx context.Context, client *http.Client, baseURL string, rng *rand.Rand, users int, undoRate float64, stats *counters) {
	cat := votableCategories[rng.Intn(len(votableCategories))]

	m, err := fetchMatchup(ctx, client, baseURL, cat)
	if err != nil {
		stats.failures.Add(1)
		return
	}

	winner, loser := m.EntityA, m.EntityB
	if rng.Intn(2) == 0 {
		winner, loser = loser, winner
	}

	voteID, err := submitVote(ctx, client, baseURL, voteRequest{
		MatchupID: m.MatchupID,
		WinnerID:  winner,
		LoserID:   loser,
		Category:  cat,
		UserID:    fmt.Sprintf("user-%d", rng.Intn(users)),
	})
	if err != nil {
		stats.failures.Add(1)
		return
	}
	stats.votes.Add(1)

	if rng.Float64() < undoRate {
		if err := undoVote(ctx, client, baseURL, voteID); err != nil {
			stats.failures.Add(1)
			return
		}
		stats.undos.Add(1)
	}
}

func fetchMatchup(ctx context.Context, client *http.Client, baseURL, cat string) (matchupResponse, error) {
	var m matchupResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/matchup?category="+cat, nil)
	if err != nil {
		return m, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return m, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return m, fmt.Errorf("matchup: unexpected status %d", resp.StatusCode)
	}
	return m, json.NewDecoder(resp.Body).Decode(&m)
}

func submitVote(ctx context.Context, client *http.Client, baseURL string, v voteRequest) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/votes", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("vote: unexpected status %d", resp.StatusCode)
	}
	var vr voteResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", err
	}
	return vr.VoteID, nil
}

func undoVote(ctx context.Context, client *http.Client, baseURL, voteID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/votes/"+voteID+"/undo", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("undo: unexpected status %d", resp.StatusCode)
	}
	return nil
}
