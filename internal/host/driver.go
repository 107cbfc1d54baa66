package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero/api"
)

// ErrNoResult reports the 0 sentinel: the adapter rejected its input and no
// valid result is available. Distinct from an empty string or empty batch.
var ErrNoResult = errors.New("invocation produced no result")

// Answer invokes the scalar answer export.
func (inst *Instance) Answer(ctx context.Context) (int32, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.broken {
		return 0, ErrInstanceBroken
	}

	s := newCallSession(inst)
	raw, err := s.invoke(ctx, inst.exports.Answer)
	if err != nil {
		return 0, fmt.Errorf("answer call failed: %w", err)
	}

	return api.DecodeI32(raw), nil
}

// GreetC round-trips name through the nul-terminated greeter. Content with an
// embedded zero byte truncates at the first zero on the way back; GreetPacked
// is the transport for arbitrary bytes.
func (inst *Instance) GreetC(ctx context.Context, name string) (string, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.broken {
		return "", ErrInstanceBroken
	}

	s := newCallSession(inst)
	defer s.releaseAll(ctx)

	ptr, err := s.allocWrite(ctx, append([]byte(name), 0))
	if err != nil {
		return "", err
	}

	raw, err := s.invoke(ctx, inst.exports.GreetC, uint64(ptr))
	if err != nil {
		return "", fmt.Errorf("greeter call failed: %w", err)
	}

	outPtr := api.DecodeU32(raw)
	if outPtr == 0 {
		return "", ErrNoResult
	}
	s.track(outPtr)

	result, err := s.readCString(outPtr)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("event", "call_complete").
		Str("session_id", s.id).
		Str("module", inst.name).
		Str("export", inst.exports.GreetC).
		Int("result_len", len(result)).
		Msg("decoded nul-terminated result")

	return result, nil
}

// GreetPacked round-trips name through the length-prefixed greeter and the
// packed [ptr][len] metadata convention.
func (inst *Instance) GreetPacked(ctx context.Context, name string) (string, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.broken {
		return "", ErrInstanceBroken
	}

	s := newCallSession(inst)
	defer s.releaseAll(ctx)

	in := []byte(name)
	ptr, err := s.allocWrite(ctx, in)
	if err != nil {
		return "", err
	}

	raw, err := s.invoke(ctx, inst.exports.GreetPacked, uint64(ptr), uint64(len(in)))
	if err != nil {
		return "", fmt.Errorf("greeter call failed: %w", err)
	}

	metaPtr := api.DecodeU32(raw)
	if metaPtr == 0 {
		return "", ErrNoResult
	}
	s.track(metaPtr)

	result, err := s.readPacked(metaPtr)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("event", "call_complete").
		Str("session_id", s.id).
		Str("module", inst.name).
		Str("export", inst.exports.GreetPacked).
		Int("result_len", len(result)).
		Msg("decoded packed result")

	return string(result), nil
}

// ProcessBatch sends a serialized command batch and data batch through the
// structured adapter and returns the serialized result batch. The driver
// moves bytes only; encoding and decoding batches is the tabular codec's job.
func (inst *Instance) ProcessBatch(ctx context.Context, cmd, data []byte) ([]byte, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.broken {
		return nil, ErrInstanceBroken
	}

	s := newCallSession(inst)
	defer s.releaseAll(ctx)

	cmdPtr, err := s.allocWrite(ctx, cmd)
	if err != nil {
		return nil, err
	}
	dataPtr, err := s.allocWrite(ctx, data)
	if err != nil {
		return nil, err
	}

	raw, err := s.invoke(ctx, inst.exports.ProcessBatch,
		uint64(cmdPtr), uint64(len(cmd)), uint64(dataPtr), uint64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("process call failed: %w", err)
	}

	metaPtr := api.DecodeU32(raw)
	if metaPtr == 0 {
		return nil, ErrNoResult
	}
	s.track(metaPtr)

	result, err := s.readPacked(metaPtr)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("event", "call_complete").
		Str("session_id", s.id).
		Str("module", inst.name).
		Str("export", inst.exports.ProcessBatch).
		Int("result_len", len(result)).
		Msg("decoded packed result batch")

	return result, nil
}
