// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
)

// Retry configures re-execution of a failing step. Attempts counts total
// tries, so attempts = 3 means up to two retries after the first failure.
type Retry struct {
	Attempts int    `hcl:"attempts"`
	Delay    string `hcl:"delay,optional"`
}

// DelayDuration parses the configured initial backoff delay, defaulting to
// one second.
func (r *Retry) DelayDuration() (time.Duration, error) {
	if r.Delay == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(r.Delay)
	if err != nil {
		return 0, fmt.Errorf("invalid retry delay %q: %w", r.Delay, err)
	}
	return d, nil
}

// newRetryFromBlock decodes a `retry` block. Retry policy is static
// configuration and never references step outputs, so it is decoded eagerly.
func newRetryFromBlock(block *hcl.Block) (*Retry, error) {
	var retry Retry
	if diags := gohcl.DecodeBody(block.Body, nil, &retry); diags.HasErrors() {
		return nil, fmt.Errorf("retry block: %w", diags)
	}
	if retry.Attempts < 1 {
		return nil, fmt.Errorf("retry attempts must be at least 1, got %d", retry.Attempts)
	}
	if _, err := retry.DelayDuration(); err != nil {
		return nil, err
	}
	return &retry, nil
}
