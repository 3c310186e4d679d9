// Package codec encodes mutex messages and hub envelopes in the protobuf
// wire format.
//
//	Message  { 1: timestamp varint, 2: sender varint, 3: kind varint }
//	Envelope { 1: id bytes(16), 2: from varint, 3: message bytes, 4: targets packed varint }
//	IDs      { 1: ids packed varint }
//
// Unknown fields are skipped so both sides can grow independently.
package codec

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pixperk/lamlock/pkg/group"
	"github.com/pixperk/lamlock/pkg/types"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	msgTimestamp protowire.Number = 1
	msgSender    protowire.Number = 2
	msgKind      protowire.Number = 3

	envID      protowire.Number = 1
	envFrom    protowire.Number = 2
	envMessage protowire.Number = 3
	envTargets protowire.Number = 4

	idsList protowire.Number = 1
)

func MarshalMessage(m types.Message) []byte {
	return appendMessage(nil, m)
}

func appendMessage(b []byte, m types.Message) []byte {
	b = protowire.AppendTag(b, msgTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Timestamp)
	b = protowire.AppendTag(b, msgSender, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Sender))
	b = protowire.AppendTag(b, msgKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Kind))
	return b
}

func UnmarshalMessage(b []byte) (types.Message, error) {
	var m types.Message
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == msgTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Timestamp = v
			return n, nil
		case num == msgSender && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Sender = types.PeerID(v)
			return n, nil
		case num == msgKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Kind = types.Kind(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return types.Message{}, err
	}
	if !m.Kind.Valid() {
		return types.Message{}, fmt.Errorf("%w: %s", types.ErrUnknownKind, m.Kind)
	}
	return m, nil
}

// MarshalEnvelope encodes env together with the ids it is addressed to.
func MarshalEnvelope(env group.Envelope, targets []types.PeerID) []byte {
	var b []byte
	b = protowire.AppendTag(b, envID, protowire.BytesType)
	b = protowire.AppendBytes(b, env.ID[:])
	b = protowire.AppendTag(b, envFrom, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(env.From))
	b = protowire.AppendTag(b, envMessage, protowire.BytesType)
	b = protowire.AppendBytes(b, MarshalMessage(env.Message))
	if len(targets) > 0 {
		b = protowire.AppendTag(b, envTargets, protowire.BytesType)
		b = protowire.AppendBytes(b, packIDs(targets))
	}
	return b
}

func UnmarshalEnvelope(b []byte) (group.Envelope, []types.PeerID, error) {
	var (
		env        group.Envelope
		targets    []types.PeerID
		hasMessage bool
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == envID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return 0, fmt.Errorf("%w: envelope id: %v", types.ErrMalformedMessage, err)
			}
			env.ID = id
			return n, nil
		case num == envFrom && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			env.From = types.PeerID(v)
			return n, nil
		case num == envMessage && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			m, err := UnmarshalMessage(v)
			if err != nil {
				return 0, err
			}
			env.Message = m
			hasMessage = true
			return n, nil
		case num == envTargets && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			ids, err := unpackIDs(v)
			if err != nil {
				return 0, err
			}
			targets = append(targets, ids...)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return group.Envelope{}, nil, err
	}
	if !hasMessage {
		return group.Envelope{}, nil, fmt.Errorf("%w: envelope without message", types.ErrMalformedMessage)
	}
	return env, targets, nil
}

func MarshalIDs(ids []types.PeerID) []byte {
	var b []byte
	b = protowire.AppendTag(b, idsList, protowire.BytesType)
	return protowire.AppendBytes(b, packIDs(ids))
}

func UnmarshalIDs(b []byte) ([]types.PeerID, error) {
	ids := []types.PeerID{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == idsList && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			more, err := unpackIDs(v)
			if err != nil {
				return 0, err
			}
			ids = append(ids, more...)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func packIDs(ids []types.PeerID) []byte {
	var b []byte
	for _, id := range ids {
		b = protowire.AppendVarint(b, uint64(id))
	}
	return b
}

func unpackIDs(b []byte) ([]types.PeerID, error) {
	var ids []types.PeerID
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedMessage, protowire.ParseError(n))
		}
		ids = append(ids, types.PeerID(v))
		b = b[n:]
	}
	return ids, nil
}

// walk iterates over the fields of b. field consumes one value and returns
// its length, negative on a wire error.
func walk(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", types.ErrMalformedMessage, protowire.ParseError(n))
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: %v", types.ErrMalformedMessage, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}
