// Command authd-loadtest drives concurrent register, login, profile and
// logout traffic against an Engine on a scratch data directory and reports
// latency percentiles per phase.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/sessionauth"
)

func main() {
	var (
		users       = flag.Int("users", 200, "number of users to register")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers")
		ops         = flag.Int("ops", 2000, "operations per login and profile phase")
		dataDir     = flag.String("data-dir", "", "data directory; a temporary one when empty")
		argonMemory = flag.Uint("argon-memory", 8*1024, "argon2id memory in KiB")
		throttle    = flag.Bool("throttle", false, "enable the redis login throttle")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	dir := *dataDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "authd-loadtest-*")
		if err != nil {
			fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
			os.Exit(1)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	cfg := sessionauth.DefaultConfig()
	cfg.Storage.DataDir = dir
	cfg.Storage.LockTimeout = 30 * time.Second
	cfg.Password.Memory = uint32(*argonMemory)
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	b := sessionauth.New()
	if *throttle {
		client, cleanup, err := openRedis(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		cfg.Security.EnableLoginThrottle = true
		cfg.Security.MaxLoginAttempts = 1 << 20
		b.WithRedis(client)
	}

	engine, err := b.WithConfig(cfg).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("data dir %s\n", dir)

	names := make([]string, *users)
	for i := range names {
		names[i] = fmt.Sprintf("user-%d", i)
	}

	registerStats := runPhase(*users, *concurrency, func(_ *rand.Rand, i int) error {
		return engine.Register(ctx, names[i], passwordFor(names[i]))
	})

	var (
		sessionsMu sync.Mutex
		sessions   = make([]string, 0, *ops)
	)
	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		name := names[r.Intn(len(names))]
		handle, err := engine.Login(ctx, name, passwordFor(name))
		if err != nil {
			return err
		}
		sessionsMu.Lock()
		sessions = append(sessions, handle.SessionID)
		sessionsMu.Unlock()
		return nil
	})

	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions issued; skipping profile and logout phases")
		os.Exit(1)
	}

	profileStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		_, err := engine.Profile(ctx, sessions[r.Intn(len(sessions))])
		return err
	})

	logoutStats := runPhase(len(sessions), *concurrency, func(_ *rand.Rand, i int) error {
		return engine.Logout(ctx, sessions[i])
	})

	fmt.Println("---- results ----")
	printStats("register", registerStats)
	printStats("login", loginStats)
	printStats("profile", profileStats)
	printStats("logout", logoutStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("storage errors=%d lock timeouts=%d\n",
		snap.Counters[sessionauth.MetricStorageError],
		snap.Counters[sessionauth.MetricStorageLocked],
	)
}

// runPhase executes op n times across concurrency workers. op receives a
// per-worker rand and the operation index.
func runPhase(n, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, n)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func passwordFor(name string) string {
	return "pw-" + name
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}
