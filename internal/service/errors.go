package service

import (
	"errors"

	"github.com/olekventi/chatly/internal/repository"
)

// Store sentinels cross the interface boundary as-is; these helpers
// keep the mapping to domain errors in one place per call site.

func isNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }

func isDuplicate(err error) bool { return errors.Is(err, repository.ErrDuplicate) }
