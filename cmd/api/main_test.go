package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodpsyche/hopebot/backend/internal/config"
	"github.com/goodpsyche/hopebot/backend/internal/service/companion"
)

func TestWireModelsWithoutCredentialsLeavesFallback(t *testing.T) {
	opts := companion.Options{}
	wireModels(context.Background(), zerolog.Nop(), config.AIConfig{Provider: config.ProviderArk}, &opts)

	assert.Nil(t, opts.Replies)
	assert.Nil(t, opts.Moods)
	assert.Nil(t, opts.Recommendations)

	resp := companion.New(opts).HandleUserMessage(context.Background(), "user-1", "hello", "English")
	assert.Equal(t, companion.FallbackMessage, resp.Response)
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{
		Addr:              addr,
		Handler:           http.NotFoundHandler(),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv, time.Second) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
