package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/db/memdb"
	"github.com/beybot/beybot/internal/db/sqlc"
)

func price(t *testing.T, v string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	require.NoError(t, n.Scan(v))
	return n
}

func TestListForContextMapsRows(t *testing.T) {
	store := memdb.New()
	account := dbpkg.NewUUID()
	store.AddProduct(sqlc.Product{
		UserID:      account,
		Name:        "Robe",
		Description: dbpkg.StringToText("Robe en lin"),
		Price:       price(t, "89.5"),
		Stock:       4,
		Category:    dbpkg.StringToText("Mode"),
	})
	store.AddProduct(sqlc.Product{UserID: dbpkg.NewUUID(), Name: "Other account", Price: price(t, "1")})

	svc := NewService(nil, store)
	products, err := svc.ListForContext(context.Background(), dbpkg.UUIDToString(account))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Robe", products[0].Name)
	assert.Equal(t, "Robe en lin", products[0].Description)
	assert.InDelta(t, 89.5, products[0].Price, 1e-9)
	assert.Equal(t, 4, products[0].Stock)
	assert.Equal(t, "Mode", products[0].Category)
}

func TestListForContextCapsAtLimit(t *testing.T) {
	store := memdb.New()
	account := dbpkg.NewUUID()
	for i := 0; i < ContextLimit+10; i++ {
		store.AddProduct(sqlc.Product{UserID: account, Name: fmt.Sprintf("p%d", i), Price: price(t, "10")})
	}
	products, err := NewService(nil, store).ListForContext(context.Background(), dbpkg.UUIDToString(account))
	require.NoError(t, err)
	assert.Len(t, products, ContextLimit)
}
