package services

import (
	"context"
	"fmt"
	"io"

	clamd "github.com/dutchcoders/go-clamd"
)

type ScanResult struct {
	Infected  bool
	Signature string
}

// Scanner inspects a stored payload before it is reported as uploaded.
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) (ScanResult, error)
}

// ClamdScanner streams payloads to a clamd daemon.
type ClamdScanner struct {
	client *clamd.Clamd
}

func NewClamdScanner(address string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(address)}
}

func (s *ClamdScanner) Ping() error {
	return s.client.Ping()
}

func (s *ClamdScanner) Scan(ctx context.Context, r io.Reader) (ScanResult, error) {
	// clamd drops the connection once abort is closed.
	abort := make(chan bool)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		close(abort)
	}()

	response, err := s.client.ScanStream(r, abort)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan failed: %w", err)
	}

	result := ScanResult{}
	for res := range response {
		switch res.Status {
		case clamd.RES_FOUND:
			result.Infected = true
			result.Signature = res.Description
		case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
			err = fmt.Errorf("scan failed: %s", res.Description)
		}
	}
	if result.Infected {
		return result, nil
	}
	return result, err
}
