// Package services holds the business operations behind the HTTP handlers.
// Every operation takes the caller's owner id explicitly and refuses to touch
// documents owned by someone else.
package services

import (
	"fmt"
	"time"

	"financas/internal/core"
)

// storeReadTimeout bounds read paths that may fan out into several store calls.
const storeReadTimeout = 7 * time.Second

func checkOwner(ownerID, docOwner, what, id string) error {
	if ownerID != docOwner {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrForbidden)
	}
	return nil
}
