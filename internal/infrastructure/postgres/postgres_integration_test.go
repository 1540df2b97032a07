//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	dominv "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-batches/internal/domain/order"
)

type PostgresSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()
	c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("minishop"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = c

	url, err := c.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.pool, err = Connect(ctx, url)
	s.Require().NoError(err)
	s.Require().NoError(MigrateInventory(ctx, s.pool))
	s.Require().NoError(MigrateOrders(ctx, s.pool))
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE inventory_batch; TRUNCATE orders RESTART IDENTITY`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) seedLaptops(repo *BatchRepository) {
	ctx := context.Background()
	s.Require().NoError(repo.Add(ctx, &dominv.Batch{ID: 2, ProductID: 1001, ProductName: "Laptop", Quantity: 30, ExpiryDate: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)}))
	s.Require().NoError(repo.Add(ctx, &dominv.Batch{ID: 1, ProductID: 1001, ProductName: "Laptop", Quantity: 50, ExpiryDate: time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)}))
}

func (s *PostgresSuite) TestBatchesAreListedByExpiry() {
	repo := NewBatchRepository(s.pool)
	s.seedLaptops(repo)

	batches, err := repo.ListByProduct(context.Background(), 1001)

	s.Require().NoError(err)
	s.Require().Len(batches, 2)
	s.Equal(int64(1), batches[0].ID)
	s.Equal(time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC), batches[0].ExpiryDate)
}

func (s *PostgresSuite) TestAtomicallyRollsBackOnError() {
	repo := NewBatchRepository(s.pool)
	s.seedLaptops(repo)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Atomically(ctx, func(ctx context.Context, tx dominv.Store) error {
		b, err := tx.Get(ctx, 1)
		if err != nil {
			return err
		}
		s.Require().NoError(b.Deduct(20))
		s.Require().NoError(tx.Save(ctx, b))
		return boom
	})
	s.ErrorIs(err, boom)

	b, err := repo.Get(ctx, 1)
	s.Require().NoError(err)
	s.Equal(50, b.Quantity)
}

func (s *PostgresSuite) TestAtomicallyCommits() {
	repo := NewBatchRepository(s.pool)
	s.seedLaptops(repo)
	ctx := context.Background()

	err := repo.Atomically(ctx, func(ctx context.Context, tx dominv.Store) error {
		b, err := tx.Get(ctx, 1)
		if err != nil {
			return err
		}
		if err := b.Deduct(20); err != nil {
			return err
		}
		return tx.Save(ctx, b)
	})
	s.Require().NoError(err)

	b, err := repo.Get(ctx, 1)
	s.Require().NoError(err)
	s.Equal(30, b.Quantity)
}

func (s *PostgresSuite) TestConcurrentDeductionsDoNotLoseUpdates() {
	repo := NewBatchRepository(s.pool)
	s.seedLaptops(repo)
	ctx := context.Background()

	const workers, each = 5, 20
	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = repo.Atomically(ctx, func(ctx context.Context, tx dominv.Store) error {
				b, err := tx.Get(ctx, 1)
				if err != nil {
					return err
				}
				if err := b.Deduct(each); err != nil {
					return err
				}
				return tx.Save(ctx, b)
			})
		}()
	}
	close(start)
	wg.Wait()

	committed := 0
	for _, err := range errs {
		if err == nil {
			committed++
			continue
		}
		s.ErrorIs(err, dominv.ErrInsufficientQuantity)
	}
	s.Equal(2, committed)

	b, err := repo.Get(ctx, 1)
	s.Require().NoError(err)
	s.Equal(50-committed*each, b.Quantity)
}

func (s *PostgresSuite) TestOrderRoundTripAndIdempotencyConflict() {
	repo := NewOrderRepository(s.pool)
	ctx := context.Background()
	o, err := domorder.NewPlaced(1001, "Laptop", 60, []int64{1, 2}, time.Now())
	s.Require().NoError(err)
	o.IdempotencyKey = "key-1"

	s.Require().NoError(repo.Insert(ctx, o))
	s.NotZero(o.ID)

	got, err := repo.FindByIdempotencyKey(ctx, "key-1")
	s.Require().NoError(err)
	s.Equal(o.ID, got.ID)
	s.Equal([]int64{1, 2}, got.ReservedBatchIDs)
	s.Equal(domorder.StatusPlaced, got.Status)

	dup, err := domorder.NewPlaced(1001, "Laptop", 1, nil, time.Now())
	s.Require().NoError(err)
	dup.IdempotencyKey = "key-1"
	s.ErrorIs(repo.Insert(ctx, dup), domorder.ErrConflict)

	_, err = repo.FindByID(ctx, 999)
	s.ErrorIs(err, domorder.ErrNotFound)
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}
