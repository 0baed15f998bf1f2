package service

import (
	"fmt"

	"bytedrop/internal/storage"
)

// AdmissionPolicy decides at registration time whether a declared size may
// be accepted. The free-space check is advisory: nothing is reserved, and
// concurrent uploads can still consume space between the check and the
// writes. It exists to turn away obviously-oversized requests early.
type AdmissionPolicy struct {
	MaxFileSize    int64
	ReservedMargin int64

	free storage.FreeSpacer
}

func NewAdmissionPolicy(maxFileSize, reservedMargin int64, free storage.FreeSpacer) *AdmissionPolicy {
	return &AdmissionPolicy{
		MaxFileSize:    maxFileSize,
		ReservedMargin: reservedMargin,
		free:           free,
	}
}

// Admit checks declaredSize against the configured ceiling and the live
// free-space headroom. It has no side effects.
func (p *AdmissionPolicy) Admit(declaredSize int64) error {
	if p == nil || p.free == nil {
		return fmt.Errorf("admission policy not initialized")
	}

	if declaredSize > p.MaxFileSize {
		return ErrTooLarge
	}

	available, err := p.free.FreeSpace()
	if err != nil {
		return fmt.Errorf("query free space: %w", err)
	}

	if declaredSize > available-p.ReservedMargin {
		return ErrInsufficientSpace
	}

	return nil
}
