package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/repository"
	"golang.org/x/text/currency"
)

// startPostgres runs a throwaway postgres container and applies all
// migrations to it.
func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("shopcore"),
		tcpostgres.WithUsername("shopcore"),
		tcpostgres.WithPassword("shopcore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)))
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	if err := repository.Migrate(connStr); err != nil {
		return nil, "", fmt.Errorf("repository.Migrate: %w", err)
	}

	return container, connStr, nil
}

func randomProduct() domain.Product {
	return domain.Product{
		Name: gofakeit.ProductName(),
		SKU:  gofakeit.LetterN(3) + "-" + gofakeit.DigitN(5),
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(gofakeit.Price(1, 100)),
			Currency: currency.EUR,
		},
		Stock:  gofakeit.Number(1, 50),
		Active: true,
	}
}

func randomAddress() domain.Address {
	return domain.Address{
		OwnerID:    gofakeit.UUID(),
		Line1:      gofakeit.Street(),
		City:       gofakeit.City(),
		Region:     gofakeit.State(),
		PostalCode: gofakeit.Zip(),
		Country:    gofakeit.CountryAbr(),
	}
}

// currencyComparer lets go-cmp compare currency.Unit fields, which have
// no exported state. Monetary amounts compare through decimal's own
// Equal method, which go-cmp picks up automatically.
var currencyComparer = cmp.Comparer(func(x, y currency.Unit) bool {
	return x.String() == y.String()
})

func assertProduct(t *testing.T, expected, actual domain.Product) {
	t.Helper()

	opts := cmp.Options{
		currencyComparer,
		cmpopts.IgnoreFields(domain.Product{}, "ID", "CreatedAt", "UpdatedAt"),
	}

	assert.Empty(t, cmp.Diff(expected, actual, opts))
}

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	opts := cmp.Options{
		currencyComparer,
		cmpopts.IgnoreFields(domain.Order{}, "ID", "CreatedAt", "UpdatedAt"),
		cmpopts.IgnoreFields(domain.OrderItem{}, "ID", "OrderID", "CreatedAt"),
		cmpopts.EquateEmpty(),
	}

	assert.Empty(t, cmp.Diff(expected, actual, opts))
}
