package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
)

// wrapErr annotates a driver error and marks connectivity failures so the
// API can answer 503 instead of 500.
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return appErrors.Unavailable(errors.Wrap(err, msg))
	}
	return errors.Wrap(err, msg)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08: connection exception, 57: operator intervention (shutdown, cannot connect now)
		class := pqErr.Code.Class()
		return class == "08" || class == "57"
	}
	var sse topology.ServerSelectionError
	if errors.As(err, &sse) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
