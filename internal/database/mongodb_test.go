package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectMongo_RejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := ConnectMongo(ctx, "", time.Second)
	require.ErrorContains(t, err, "empty URI")

	_, err = ConnectMongo(ctx, "postgres://localhost:5432", time.Second)
	require.ErrorContains(t, err, "mongo connect")
}

func TestOpenDatabase_RequiresName(t *testing.T) {
	_, _, err := OpenDatabase(context.Background(), "mongodb://localhost:27017", "", time.Second)
	require.ErrorContains(t, err, "database name is required")
}
