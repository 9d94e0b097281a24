package test

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"lingoflow/identity"
	"lingoflow/test/actors"
	"lingoflow/test/infra"
	"lingoflow/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 30*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 4, "actors per kind")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

// TestIdentityConcurrency races register, verify, and resend against a shared
// pool of addresses and checks the SQL oracles afterwards. Per-row locking in
// the service must keep every identity's token pair and verified flag
// consistent no matter how the actors interleave.
func TestIdentityConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in -short mode")
	}

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	var (
		pgC *infra.PGContainer
		dsn string
		err error
	)
	switch {
	case *flDSN != "":
		dsn = *flDSN
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Skipf("no docker and no local postgres: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	pool, err := infra.ApplyMigrations(ctx, dsn)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()

	box := actors.NewTokenBox()
	sessions := identity.NewSessionIssuer("stress-secret", 30*time.Minute)
	svc := identity.NewService(pool, identity.NewRepository(pool), sessions, box)

	emails := actors.Emails(8)
	stop := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Registrar(gctx, svc, emails, stop) })
		g.Go(func() error { return actors.Verifier(gctx, svc, box, stop) })
		g.Go(func() error { return actors.Resender(gctx, svc, emails, stop) })
	}

	time.AfterFunc(*flDuration, func() { close(stop) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		t.Fatalf("actor failed: %v", err)
	}

	if err := oracles.Check(ctx, pool); err != nil {
		t.Fatalf("oracle check: %v", err)
	}

	// Every verified identity must stay verified with a cleared token pair.
	var dirty int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM identities WHERE is_email_verified AND (verification_token IS NOT NULL OR verification_token_expires_at IS NOT NULL)`).Scan(&dirty); err != nil {
		t.Fatalf("final check: %v", err)
	}
	if dirty != 0 {
		t.Fatalf("expected no verified identities holding tokens, found %d", dirty)
	}
}

func dockerAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "info")
	return cmd.Run() == nil
}
