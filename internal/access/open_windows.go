//go:build windows

package access

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	// Registers the "adodb" database/sql driver backed by ADO COM automation.
	_ "github.com/mattn/go-adodb"
)

// Open opens the Access database at path in shared mode, suitable for reads
// while other clients have the file open.
func Open(ctx context.Context, path string) (*Handle, error) {
	return open(ctx, path, "Share Deny None")
}

// OpenExclusive opens the Access database at path in exclusive mode, required
// for deletes. It fails when any other client currently has the file open.
func OpenExclusive(ctx context.Context, path string) (*Handle, error) {
	return open(ctx, path, "Share Exclusive")
}

func open(ctx context.Context, path, mode string) (*Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("access: database file: %w", err)
	}

	dsn := fmt.Sprintf("Provider=Microsoft.ACE.OLEDB.12.0;Data Source=%s;Mode=%s;", path, mode)
	db, err := sql.Open("adodb", dsn)
	if err != nil {
		return nil, fmt.Errorf("access: open %s: %w", path, err)
	}

	// ADO connections are not safe for concurrent statements, and the whole
	// program is sequential anyway.
	db.SetMaxOpenConns(1)

	// Fail fast: a file locked exclusively elsewhere, or a missing ACE
	// provider, surfaces here rather than on the first query.
	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("access: connect %s (mode %s): %w", path, mode, err)
	}

	return &Handle{db: db, path: path}, nil
}
