package host

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmbridge/wasmbridge/pkg/guestmem"
)

// callSession tracks every guest buffer one invocation touched — inputs the
// host wrote plus any buffers the guest allocated for its result — so
// releaseAll can hand each one back to the guest allocator when the call
// ends, whatever way it ends.
type callSession struct {
	id      string
	inst    *Instance
	handles []uint32
}

func newCallSession(inst *Instance) *callSession {
	return &callSession{id: uuid.NewString(), inst: inst}
}

// invoke calls an export and returns its single numeric result. An engine
// error is a trap: it poisons the instance.
func (s *callSession) invoke(ctx context.Context, export string, params ...uint64) (uint64, error) {
	results, err := s.inst.mod.Call(ctx, export, params...)
	if err != nil {
		s.inst.broken = true
		return 0, err
	}
	if len(results) < 1 {
		return 0, fmt.Errorf("%s returned no results", export)
	}

	return results[0], nil
}

// allocWrite reserves a guest buffer for data, writes it, and tracks the
// handle for release.
func (s *callSession) allocWrite(ctx context.Context, data []byte) (uint32, error) {
	raw, err := s.invoke(ctx, s.inst.exports.Allocate, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("alloc failed: %w", err)
	}

	ptr := api.DecodeU32(raw)
	if ptr == 0 {
		// The guest allocator signals sandbox out-of-memory with 0.
		s.inst.broken = true
		return 0, errors.New("guest allocator returned null pointer")
	}
	s.track(ptr)

	if len(data) > 0 && !s.inst.mod.MemoryWrite(ptr, data) {
		return 0, errors.New("memory write failed: bounds exceeded")
	}

	return ptr, nil
}

func (s *callSession) track(handle uint32) {
	s.handles = append(s.handles, handle)
}

// releaseAll deallocates every tracked buffer, best effort. Failures are
// logged and never overturn an already-decoded result. A poisoned instance
// is not touched again: its table state is no longer trustworthy.
func (s *callSession) releaseAll(ctx context.Context) {
	if s.inst.broken {
		log.Warn().
			Str("session_id", s.id).
			Str("module", s.inst.name).
			Int("handles", len(s.handles)).
			Msg("skipping cleanup on broken instance")
		s.handles = nil

		return
	}

	for _, handle := range s.handles {
		results, err := s.inst.mod.Call(ctx, s.inst.exports.Deallocate, uint64(handle))
		if err != nil {
			s.inst.broken = true
			log.Error().Err(err).
				Str("session_id", s.id).
				Str("module", s.inst.name).
				Uint32("handle", handle).
				Msg("failed to deallocate guest buffer")

			break
		}
		if len(results) < 1 || api.DecodeI32(results[0]) != guestmem.StatusOK {
			log.Error().
				Str("session_id", s.id).
				Str("module", s.inst.name).
				Uint32("handle", handle).
				Msg("could not deallocate shared guest memory")
		}
	}
	s.handles = nil
}

// readCString scans guest memory byte by byte from offset until the first
// zero byte.
func (s *callSession) readCString(offset uint32) (string, error) {
	var out []byte
	for {
		b, ok := s.inst.mod.MemoryRead(offset, 1)
		if !ok {
			return "", errors.New("memory read failed: bounds exceeded")
		}
		if b[0] == 0 {
			break
		}
		out = append(out, b[0])
		offset++
	}

	return string(out), nil
}

// readPacked reads the [ptr][len] metadata words at metaPtr, tracks the
// payload buffer, and returns its content. Both words are read before the
// payload pointer is touched.
func (s *callSession) readPacked(metaPtr uint32) ([]byte, error) {
	meta, ok := s.inst.mod.MemoryRead(metaPtr, 8)
	if !ok {
		return nil, errors.New("metadata read failed: bounds exceeded")
	}

	ptr := binary.LittleEndian.Uint32(meta[0:4])
	length := binary.LittleEndian.Uint32(meta[4:8])
	if ptr != 0 {
		s.track(ptr)
	}
	if length == 0 {
		return nil, nil
	}

	data, ok := s.inst.mod.MemoryRead(ptr, length)
	if !ok {
		return nil, errors.New("payload read failed: bounds exceeded")
	}

	return data, nil
}
