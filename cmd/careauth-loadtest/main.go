package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/techcare/careauth"
	"github.com/techcare/careauth/internal/repository"
)

type accountState struct {
	mobile string
	code   string
	token  string
	mu     sync.Mutex
}

func main() {
	var (
		accounts    = flag.Int("accounts", 2000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "token validations in the validate phase")
		hashCost    = flag.Int("hash-cost", 4, "bcrypt cost for issued codes")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		strict      = flag.Bool("strict", false, "validate tokens against the revocation denylist")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	repo := repository.NewMemory()
	states := make([]accountState, *accounts)
	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	for i := range states {
		mobile := fmt.Sprintf("9%09d", i)
		states[i].mobile = mobile
		err := repo.CreateAccount(ctx, careauth.Account{
			ID:         fmt.Sprintf("USR-%d", i),
			FirstName:  "Load",
			LastName:   fmt.Sprintf("User%d", i),
			Email:      fmt.Sprintf("load%d@example.com", i),
			Mobile:     mobile,
			Role:       careauth.RoleProvider,
			ProviderID: fmt.Sprintf("PRV-%d", i),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	cfg := careauth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("loadtest-signing-key-0123456789abcdef")
	cfg.OTP.HashCost = *hashCost
	cfg.OTP.ExposeCode = true
	cfg.RateLimit.Enabled = false
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	if *strict {
		cfg.ValidationMode = careauth.ModeStrict
	}

	engine, err := careauth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithAccountProvider(repo).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	issueStats := runPhase(len(states), *concurrency, func(i int, _ *rand.Rand) error {
		s := &states[i]
		res, err := engine.IssueOTP(ctx, s.mobile)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.code = res.Code
		s.mu.Unlock()
		return nil
	})

	loginStats := runPhase(len(states), *concurrency, func(i int, _ *rand.Rand) error {
		s := &states[i]
		s.mu.Lock()
		defer s.mu.Unlock()
		res, err := engine.Login(ctx, s.mobile, s.code)
		if err != nil {
			return err
		}
		s.token = res.Token.Token
		return nil
	})

	validateStats := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		s := &states[r.Intn(len(states))]
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()
		_, err := engine.Validate(ctx, token)
		return err
	})

	fmt.Println("---- results ----")
	printStats("issue", issueStats)
	printStats("login", loginStats)
	printStats("validate", validateStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine counters: otp_issued=%d verify_success=%d verify_failure=%d token_issued=%d\n",
		snap.Counters[careauth.MetricOTPIssued],
		snap.Counters[careauth.MetricOTPVerifySuccess],
		snap.Counters[careauth.MetricOTPVerifyFailure],
		snap.Counters[careauth.MetricTokenIssued],
	)
}

// runPhase runs op ops times across concurrency workers. op receives the
// operation index and a per-worker random source.
func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
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
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
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
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
