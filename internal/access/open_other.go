//go:build !windows

package access

import (
	"context"
	"fmt"
)

// Open reports the automation provider as unavailable: the ADO/ACE OLE DB
// stack only exists on Windows.
func Open(ctx context.Context, path string) (*Handle, error) {
	return nil, fmt.Errorf("access: open %s: %w", path, ErrProviderUnavailable)
}

// OpenExclusive reports the automation provider as unavailable.
func OpenExclusive(ctx context.Context, path string) (*Handle, error) {
	return nil, fmt.Errorf("access: open %s: %w", path, ErrProviderUnavailable)
}
