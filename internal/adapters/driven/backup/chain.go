// Package backup combines backup writers.
//
// The file subpackage is the durable local writer; s3 mirrors the same
// archive to an S3-compatible bucket.
package backup

import (
	"context"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	"github.com/custodia-labs/wearsync/internal/logger"
)

// Ensure Chain implements the interface.
var _ driven.BackupWriter = (*Chain)(nil)

// Chain writes to a primary writer and then copies to any mirrors.
// Only the primary decides success; mirror failures are logged.
type Chain struct {
	primary driven.BackupWriter
	mirrors []driven.BackupWriter
}

// NewChain creates a chain. Nil mirrors are ignored.
func NewChain(primary driven.BackupWriter, mirrors ...driven.BackupWriter) *Chain {
	c := &Chain{primary: primary}
	for _, m := range mirrors {
		if m != nil {
			c.mirrors = append(c.mirrors, m)
		}
	}
	return c
}

// Write writes the archive to the primary, then to each mirror.
// Mirrors are skipped when the primary fails.
func (c *Chain) Write(ctx context.Context, name string, archive *domain.Archive) (string, error) {
	location, err := c.primary.Write(ctx, name, archive)
	if err != nil {
		return "", err
	}

	for _, m := range c.mirrors {
		mirrored, err := m.Write(ctx, name, archive)
		if err != nil {
			logger.Warn("Backup mirror failed: %v", err)
			continue
		}
		logger.Debug("Backup mirrored to %s", mirrored)
	}
	return location, nil
}
